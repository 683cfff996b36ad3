package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/events"
	"github.com/AnasTanwar5/quiz-burst/quiz"
	"github.com/AnasTanwar5/quiz-burst/store"
)

// testClock is a manually advanced clock shared by an engine under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventRecorder captures published lifecycle events.
type eventRecorder struct {
	mu      sync.Mutex
	started []events.SessionEvent
	ended   []events.SessionEvent
}

func (r *eventRecorder) SessionStarted(ctx context.Context, ev events.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, ev)
	return nil
}

func (r *eventRecorder) SessionEnded(ctx context.Context, ev events.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, ev)
	return nil
}

func (r *eventRecorder) Close() error { return nil }

func (r *eventRecorder) startedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started)
}

func (r *eventRecorder) endedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ended)
}

func newTestEngine(t *testing.T) (*Engine, *testClock, *eventRecorder) {
	t.Helper()
	clock := newTestClock()
	recorder := &eventRecorder{}
	e, err := New(&Config{
		Store:  store.NewMemoryStore(),
		Events: recorder,
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return e, clock, recorder
}

func hostIdentity() *auth.Identity {
	return &auth.Identity{UserID: "host-1", Email: "host@example.com", Role: auth.RoleAdmin}
}

// createTestQuiz authors a quiz with n three-option questions whose correct
// answer is always option 1, on a 20 second clock.
func createTestQuiz(t *testing.T, e *Engine, n int) (*quiz.Quiz, []quiz.Question) {
	t.Helper()
	in := &NewQuiz{
		Title:            "world capitals",
		TimeLimitSeconds: 20,
	}
	for i := 0; i < n; i++ {
		in.Questions = append(in.Questions, NewQuestion{
			Text:         fmt.Sprintf("capital %d", i),
			Options:      []string{"red", "green", "blue"},
			CorrectIndex: 1,
		})
	}
	q, questions, err := e.CreateQuiz(context.Background(), hostIdentity(), in)
	require.NoError(t, err)
	require.Len(t, questions, n)
	return q, questions
}

// startedSession creates a session, joins the named participants and starts
// it, returning the session and the participants in order. The clock ticks
// between joins so join order is observable.
func startedSession(t *testing.T, e *Engine, clock *testClock, quizID string, names ...string) (*quiz.Session, []*quiz.Participant) {
	t.Helper()
	ctx := context.Background()

	sess, err := e.CreateSession(ctx, hostIdentity(), quizID)
	require.NoError(t, err)

	var participants []*quiz.Participant
	for _, name := range names {
		p, _, err := e.Join(ctx, sess.Code, name, "")
		require.NoError(t, err)
		participants = append(participants, p)
		clock.Advance(time.Millisecond)
	}

	started, err := e.Start(ctx, hostIdentity(), sess.ID)
	require.NoError(t, err)
	return started, participants
}
