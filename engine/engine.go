package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/AnasTanwar5/quiz-burst/codes"
	"github.com/AnasTanwar5/quiz-burst/events"
	"github.com/AnasTanwar5/quiz-burst/quiz"
	"github.com/AnasTanwar5/quiz-burst/store"
)

// Config carries the engine's collaborators and tunables.
type Config struct {
	// Store is the persistence collaborator. Required.
	Store store.Store

	// Codes reserves join codes among live sessions. Defaults to an
	// in-process allocator.
	Codes codes.Allocator

	// Events receives session lifecycle notifications. Defaults to a no-op
	// publisher.
	Events events.Publisher

	// Log is the structured logger. Defaults to slog.Default().
	Log *slog.Logger

	// Scoring overrides the default time-bonus constants.
	Scoring quiz.Scoring

	// Now overrides the engine clock, for tests.
	Now func() time.Time
}

// Engine is the session progression and scoring engine.
type Engine struct {
	store   store.Store
	codes   codes.Allocator
	events  events.Publisher
	log     *slog.Logger
	scoring quiz.Scoring
	now     func() time.Time
}

// New creates an engine from the configuration, filling in defaults for
// optional collaborators.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, errors.New("engine requires a store")
	}

	e := &Engine{
		store:   cfg.Store,
		codes:   cfg.Codes,
		events:  cfg.Events,
		log:     cfg.Log,
		scoring: cfg.Scoring,
		now:     cfg.Now,
	}
	if e.codes == nil {
		e.codes = codes.NewMemoryAllocator()
	}
	if e.events == nil {
		e.events = events.NopPublisher{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.scoring == (quiz.Scoring{}) {
		e.scoring = quiz.DefaultScoring()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}
