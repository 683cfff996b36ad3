package store

import (
	"context"
	"time"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// Store is the durable record of quizzes, sessions, participants and answers.
// Implementations must return quiz.ErrNotFound (possibly wrapped) for missing
// rows so callers can translate it uniformly.
type Store interface {
	// Ping verifies the backing store is reachable. The HTTP server uses it
	// as its readiness probe: if the store is gone, the server stops
	// accepting new mutations rather than silently dropping them.
	Ping(ctx context.Context) error
	Close() error

	// Quizzes and questions are written once by the host and read-only
	// afterwards from the engine's point of view.
	CreateQuiz(ctx context.Context, q *quiz.Quiz, questions []quiz.Question) error
	GetQuiz(ctx context.Context, quizID string) (*quiz.Quiz, error)
	ListQuizzesByOwner(ctx context.Context, ownerID string) ([]*quiz.Quiz, error)
	// GetQuestions returns the quiz's questions ordered by their explicit
	// order index.
	GetQuestions(ctx context.Context, quizID string) ([]quiz.Question, error)

	CreateSession(ctx context.Context, s *quiz.Session) error
	GetSession(ctx context.Context, sessionID string) (*quiz.Session, error)
	// GetSessionByCode resolves a join code, preferring a live session over
	// ended ones that used the same code earlier.
	GetSessionByCode(ctx context.Context, code string) (*quiz.Session, error)

	// StartSession transitions waiting -> active, stamping the start and
	// first-question times. It fails with quiz.ErrInvalidTransition if the
	// session is not waiting.
	StartSession(ctx context.Context, sessionID string, now time.Time) (*quiz.Session, error)

	// AdvanceSession increments the current-question index by exactly one,
	// guarded by fromIndex: the update applies only if the stored index still
	// equals fromIndex and the session is active. When the new index reaches
	// total the session transitions to ended in the same update. The returned
	// bool reports whether this call performed the transition; on a lost race
	// the now-current session is returned with false.
	AdvanceSession(ctx context.Context, sessionID string, fromIndex, total int, now time.Time) (*quiz.Session, bool, error)

	// EndSession transitions any non-ended session to ended. Ending an
	// already-ended session fails with quiz.ErrInvalidTransition.
	EndSession(ctx context.Context, sessionID string, now time.Time) (*quiz.Session, error)

	CreateParticipant(ctx context.Context, p *quiz.Participant) error
	GetParticipant(ctx context.Context, participantID string) (*quiz.Participant, error)
	// ListParticipants returns the session's participants in join order.
	ListParticipants(ctx context.Context, sessionID string) ([]*quiz.Participant, error)
	CountParticipants(ctx context.Context, sessionID string) (int, error)

	// UpsertAnswer writes the ledger row for the answer's
	// (session, participant, question) key, overwriting any previous row.
	UpsertAnswer(ctx context.Context, a *quiz.Answer) error
	GetAnswer(ctx context.Context, sessionID, participantID, questionID string) (*quiz.Answer, error)
	// CountAnswered counts distinct participants with a non-sentinel answer
	// for the question.
	CountAnswered(ctx context.Context, sessionID, questionID string) (int, error)
	ListAnswersBySession(ctx context.Context, sessionID string) ([]*quiz.Answer, error)

	// ListExpiredSessions returns non-ended sessions whose quiz expiry has
	// passed, for the administrative cleanup sweep.
	ListExpiredSessions(ctx context.Context, now time.Time) ([]*quiz.Session, error)
}
