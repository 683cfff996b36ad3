package quiz

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a live quiz session.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// Valid returns true if the status is one of the recognized lifecycle states.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusEnded:
		return true
	}
	return false
}

const (
	// SentinelNoAnswer marks an answer row recorded because the participant's
	// timer ran out without a choice. Sentinel rows occupy the uniqueness slot
	// for their (participant, question) key but are excluded from answered
	// counts used for early-advancement signalling.
	SentinelNoAnswer = -1

	// DefaultBasePoints and DefaultBonusRange are the scoring constants shared
	// with the client-visible countdown.
	DefaultBasePoints = 30
	DefaultBonusRange = 70

	// DefaultTimeLimit is the per-question time limit applied when a quiz does
	// not configure one.
	DefaultTimeLimit = 20 * time.Second

	// MinOptions is the smallest option list a question may carry.
	MinOptions = 2
)

// Quiz is a host-authored set of questions. It is read-only from the session
// engine's point of view: once a session references it, edits must not change
// that session's question set.
type Quiz struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"ownerId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	TimeLimit   time.Duration `json:"timeLimit"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Question is a single multiple-choice question. OrderIndex is the stable
// ordering key within the quiz; order is never re-derived from insertion or
// text.
type Question struct {
	ID           string    `json:"id"`
	QuizID       string    `json:"quizId"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
	Points       int       `json:"points"`
	Hint         string    `json:"hint,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
	OrderIndex   int       `json:"orderIndex"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the question shape at ingestion time rather than trusting
// it at read time.
func (q *Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuiz)
	}
	if len(q.Options) < MinOptions {
		return fmt.Errorf("%w: question needs at least %d options, got %d", ErrInvalidQuiz, MinOptions, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of bounds for %d options", ErrInvalidQuiz, q.CorrectIndex, len(q.Options))
	}
	return nil
}

// Session is one live run of a quiz. It is the unit of synchronization: all
// participants observing it converge on CurrentQuestionIndex.
type Session struct {
	ID     string        `json:"id"`
	QuizID string        `json:"quizId"`
	Code   string        `json:"code"`
	Status SessionStatus `json:"status"`

	// CurrentQuestionIndex is zero-based and strictly non-decreasing. It is
	// only meaningful once the session is active.
	CurrentQuestionIndex int `json:"currentQuestionIndex"`

	// QuestionStartedAt is stamped by the server on start and on every
	// advancement. Scoring derives time-remaining from it; client-reported
	// timings are never trusted.
	QuestionStartedAt time.Time `json:"questionStartedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	StartedAt time.Time `json:"startedAt,omitempty"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
}

// Ended reports whether the session reached its terminal state.
func (s *Session) Ended() bool { return s.Status == StatusEnded }

// Participant is one joined player. Display names may collide; identity for
// answer attribution is the store-assigned ID. The row outlives the session
// so leaderboards and history stay resolvable after it ends.
type Participant struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Answer is the ledger record for one (session, participant, question) key.
// At most one logically-current row exists per key: resubmissions overwrite,
// they never duplicate.
type Answer struct {
	SessionID     string    `json:"sessionId"`
	ParticipantID string    `json:"participantId"`
	QuestionID    string    `json:"questionId"`
	OptionIndex   int       `json:"optionIndex"`
	TimeRemaining float64   `json:"timeRemaining"`
	Points        int       `json:"points"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TimedOut reports whether the row is a timeout sentinel rather than a real
// choice.
func (a *Answer) TimedOut() bool { return a.OptionIndex == SentinelNoAnswer }

// Standing is one leaderboard row for a session, derived on demand from the
// answer ledger.
type Standing struct {
	ParticipantID string  `json:"participantId"`
	Name          string  `json:"name"`
	TotalScore    int     `json:"totalScore"`
	CorrectCount  int     `json:"correctCount"`
	TotalAnswered int     `json:"totalAnswered"`
	Accuracy      float64 `json:"accuracy"`
}
