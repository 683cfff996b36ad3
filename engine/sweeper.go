package engine

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically ends sessions whose quiz expiry has passed. Expiry is
// a housekeeping backstop: clients never depend on it for correctness, they
// observe the ended state through the usual status poll.
type Sweeper struct {
	engine *Engine
	cron   *cron.Cron
}

// NewSweeper schedules the expiry sweep on the given cron spec
// (e.g. "@every 10m").
func NewSweeper(e *Engine, spec string) (*Sweeper, error) {
	s := &Sweeper{engine: e, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.engine.EndExpiredSessions(ctx); err != nil {
		s.engine.log.Error("expiry sweep failed", "err", err)
	}
}

// EndExpiredSessions ends every non-ended session whose quiz has expired,
// releasing join codes and publishing the usual lifecycle event for each.
func (e *Engine) EndExpiredSessions(ctx context.Context) error {
	now := e.now()
	expired, err := e.store.ListExpiredSessions(ctx, now)
	if err != nil {
		return err
	}

	for _, sess := range expired {
		ended, err := e.store.EndSession(ctx, sess.ID, now)
		if err != nil {
			// Another sweep or the host may have ended it since listing.
			e.log.Warn("ending expired session", "sessionId", sess.ID, "err", err)
			continue
		}
		e.releaseCode(ctx, ended)
		e.publishEnded(ctx, ended)
		e.log.Info("expired session ended", "sessionId", sess.ID)
	}
	return nil
}
