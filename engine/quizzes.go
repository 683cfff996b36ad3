package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// Authoring defaults applied when the host omits a value.
const (
	defaultQuestionPoints = 100
	defaultQuizLifetime   = 24 * time.Hour
)

// NewQuestion is the host-supplied payload for one question.
type NewQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Points       int      `json:"points"`
	Hint         string   `json:"hint,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// NewQuiz is the host-supplied payload for quiz creation.
type NewQuiz struct {
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	TimeLimitSeconds int           `json:"timeLimitSeconds"`
	ExpiresAt        time.Time     `json:"expiresAt,omitempty"`
	Questions        []NewQuestion `json:"questions"`
}

// CreateQuiz validates and persists a quiz for the host. Question order is
// the order of the request payload, recorded as each question's explicit
// order index.
func (e *Engine) CreateQuiz(ctx context.Context, ident *auth.Identity, in *NewQuiz) (*quiz.Quiz, []quiz.Question, error) {
	if ident == nil {
		return nil, nil, quiz.ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, nil, fmt.Errorf("%w: title is required", quiz.ErrInvalidQuiz)
	}
	if len(in.Questions) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one question is required", quiz.ErrInvalidQuiz)
	}

	now := e.now()

	timeLimit := time.Duration(in.TimeLimitSeconds) * time.Second
	if timeLimit <= 0 {
		timeLimit = quiz.DefaultTimeLimit
	}
	expiresAt := in.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(defaultQuizLifetime)
	}

	q := &quiz.Quiz{
		ID:          uuid.NewString(),
		OwnerID:     ident.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		TimeLimit:   timeLimit,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}

	questions := make([]quiz.Question, 0, len(in.Questions))
	for i, nq := range in.Questions {
		points := nq.Points
		if points <= 0 {
			points = defaultQuestionPoints
		}
		question := quiz.Question{
			ID:           uuid.NewString(),
			QuizID:       q.ID,
			Text:         strings.TrimSpace(nq.Text),
			Options:      nq.Options,
			CorrectIndex: nq.CorrectIndex,
			Points:       points,
			Hint:         nq.Hint,
			Explanation:  nq.Explanation,
			OrderIndex:   i,
			CreatedAt:    now,
		}
		if err := question.Validate(); err != nil {
			return nil, nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, question)
	}

	if err := e.store.CreateQuiz(ctx, q, questions); err != nil {
		return nil, nil, fmt.Errorf("persisting quiz: %w", err)
	}

	e.log.Info("quiz created", "quizId", q.ID, "ownerId", q.OwnerID, "questions", len(questions))
	return q, questions, nil
}

// GetQuiz retrieves a quiz with its ordered questions. Only the owner may
// read the authoring view, which includes correct-answer indices.
func (e *Engine) GetQuiz(ctx context.Context, ident *auth.Identity, quizID string) (*quiz.Quiz, []quiz.Question, error) {
	q, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	if ident == nil || ident.UserID != q.OwnerID {
		return nil, nil, quiz.ErrUnauthorized
	}
	questions, err := e.store.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	return q, questions, nil
}

// ListQuizzes retrieves the host's quizzes, newest first.
func (e *Engine) ListQuizzes(ctx context.Context, ident *auth.Identity) ([]*quiz.Quiz, error) {
	if ident == nil {
		return nil, quiz.ErrUnauthorized
	}
	return e.store.ListQuizzesByOwner(ctx, ident.UserID)
}
