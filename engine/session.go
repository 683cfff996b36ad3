package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/events"
	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// codeAttempts bounds join-code generation retries. With a 32^6 code space a
// second attempt is already rare.
const codeAttempts = 5

// minCodeTTL keeps a code reserved long enough for a session whose quiz is
// about to expire to still be joinable.
const minCodeTTL = time.Hour

// CreateSession creates a waiting session for the host's quiz with a freshly
// reserved join code.
func (e *Engine) CreateSession(ctx context.Context, ident *auth.Identity, quizID string) (*quiz.Session, error) {
	q, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.UserID != q.OwnerID {
		return nil, quiz.ErrUnauthorized
	}

	now := e.now()
	if q.ExpiresAt.Before(now) {
		return nil, fmt.Errorf("%w: quiz expired", quiz.ErrInvalidState)
	}

	sessionID := uuid.NewString()
	ttl := q.ExpiresAt.Sub(now)
	if ttl < minCodeTTL {
		ttl = minCodeTTL
	}

	var code string
	for i := 0; i < codeAttempts; i++ {
		candidate, err := quiz.GenerateJoinCode()
		if err != nil {
			return nil, err
		}
		ok, err := e.codes.Reserve(ctx, candidate, sessionID, ttl)
		if err != nil {
			return nil, fmt.Errorf("reserving join code: %w", err)
		}
		if ok {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, fmt.Errorf("could not reserve a join code after %d attempts", codeAttempts)
	}

	sess := &quiz.Session{
		ID:        sessionID,
		QuizID:    quizID,
		Code:      code,
		Status:    quiz.StatusWaiting,
		CreatedAt: now,
	}
	if err := e.store.CreateSession(ctx, sess); err != nil {
		if relErr := e.codes.Release(ctx, code); relErr != nil {
			e.log.Error("releasing join code after failed create", "code", code, "err", relErr)
		}
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	e.log.Info("session created", "sessionId", sess.ID, "quizId", quizID, "code", code)
	return sess, nil
}

// GetSession retrieves a session by id.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*quiz.Session, error) {
	return e.store.GetSession(ctx, sessionID)
}

// GetSessionByCode resolves a join code to its live session.
func (e *Engine) GetSessionByCode(ctx context.Context, code string) (*quiz.Session, error) {
	return e.store.GetSessionByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// Join adds a participant to a session resolved by join code. Players may
// join while the session is waiting or, as late joiners, while it is active;
// an ended session rejects joins. Display names may collide; identity is
// the returned participant id.
func (e *Engine) Join(ctx context.Context, code, name, userID string) (*quiz.Participant, *quiz.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: participant name is required", quiz.ErrInvalidQuiz)
	}

	sess, err := e.GetSessionByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if sess.Ended() {
		return nil, nil, fmt.Errorf("%w: session has ended", quiz.ErrInvalidState)
	}

	p := &quiz.Participant{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		UserID:    userID,
		Name:      name,
		JoinedAt:  e.now(),
	}
	if err := e.store.CreateParticipant(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("persisting participant: %w", err)
	}

	e.log.Info("participant joined", "sessionId", sess.ID, "participantId", p.ID)
	return p, sess, nil
}

// Start performs the host-triggered waiting -> active transition. It fails
// with quiz.ErrNoParticipants when nobody has joined yet.
func (e *Engine) Start(ctx context.Context, ident *auth.Identity, sessionID string) (*quiz.Session, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOwner(ctx, ident, sess.QuizID); err != nil {
		return nil, err
	}

	count, err := e.store.CountParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, quiz.ErrNoParticipants
	}

	started, err := e.store.StartSession(ctx, sessionID, e.now())
	if err != nil {
		return nil, err
	}

	e.publishStarted(ctx, started)
	e.log.Info("session started", "sessionId", sessionID, "participants", count)
	return started, nil
}

// End performs the host-triggered transition to ended. Further submissions
// are rejected once it returns.
func (e *Engine) End(ctx context.Context, ident *auth.Identity, sessionID string) (*quiz.Session, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.requireOwner(ctx, ident, sess.QuizID); err != nil {
		return nil, err
	}

	ended, err := e.store.EndSession(ctx, sessionID, e.now())
	if err != nil {
		return nil, err
	}

	e.releaseCode(ctx, ended)
	e.publishEnded(ctx, ended)
	e.log.Info("session ended by host", "sessionId", sessionID)
	return ended, nil
}

// Status is the polling payload that makes every state transition
// discoverable without a push channel. It must stay cheap: four indexed
// reads, no aggregation.
type Status struct {
	Status               quiz.SessionStatus `json:"status"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	TotalQuestions       int                `json:"totalQuestions"`
	ParticipantCount     int                `json:"participantCount"`
	AnsweredCount        int                `json:"answeredCount"`
	AllAnswered          bool               `json:"allAnswered"`
	IsComplete           bool               `json:"isComplete"`
}

// GetStatus computes the status payload for a session.
func (e *Engine) GetStatus(ctx context.Context, sessionID string) (*Status, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	questions, err := e.store.GetQuestions(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}
	total := len(questions)

	participantCount, err := e.store.CountParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Status:               sess.Status,
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		TotalQuestions:       total,
		ParticipantCount:     participantCount,
		IsComplete:           sess.Ended() || sess.CurrentQuestionIndex >= total,
	}

	if sess.Status == quiz.StatusActive && sess.CurrentQuestionIndex < total {
		answered, err := e.store.CountAnswered(ctx, sessionID, questions[sess.CurrentQuestionIndex].ID)
		if err != nil {
			return nil, err
		}
		st.AnsweredCount = answered
		st.AllAnswered = participantCount > 0 && answered >= participantCount
	}

	return st, nil
}

// QuestionView is the question payload served to participants. The correct
// index and the explanation are withheld so polling the endpoint reveals
// nothing a client could cheat with; correctness comes back in the submit
// response.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
	Hint    string   `json:"hint,omitempty"`
}

// CurrentQuestion is the payload of the current-question endpoint. Only the
// present question is ever returned, never the full list.
type CurrentQuestion struct {
	Question             *QuestionView `json:"question"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	TotalQuestions       int           `json:"totalQuestions"`
	TimeLimitSeconds     int           `json:"timeLimit"`
	TimeRemaining        float64       `json:"timeRemaining"`
	IsComplete           bool          `json:"isComplete"`
}

// GetCurrentQuestion returns the question at the session's current index.
// A waiting session fails with quiz.ErrInvalidState; an ended session still
// reports its final index with isComplete set, so late pollers detect the
// end gracefully instead of erroring.
func (e *Engine) GetCurrentQuestion(ctx context.Context, sessionID string) (*CurrentQuestion, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == quiz.StatusWaiting {
		return nil, fmt.Errorf("%w: session has not started", quiz.ErrInvalidState)
	}

	questions, err := e.store.GetQuestions(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}
	total := len(questions)

	cq := &CurrentQuestion{
		CurrentQuestionIndex: sess.CurrentQuestionIndex,
		TotalQuestions:       total,
	}
	if sess.Ended() || sess.CurrentQuestionIndex >= total {
		cq.IsComplete = true
		return cq, nil
	}

	q, err := e.store.GetQuiz(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}

	question := questions[sess.CurrentQuestionIndex]
	cq.Question = &QuestionView{
		ID:      question.ID,
		Text:    question.Text,
		Options: question.Options,
		Points:  question.Points,
		Hint:    question.Hint,
	}
	cq.TimeLimitSeconds = int(q.TimeLimit.Seconds())
	cq.TimeRemaining = quiz.Remaining(sess.QuestionStartedAt, e.now(), q.TimeLimit).Seconds()
	return cq, nil
}

// Participants lists a session's participants in join order.
func (e *Engine) Participants(ctx context.Context, sessionID string) ([]*quiz.Participant, error) {
	if _, err := e.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return e.store.ListParticipants(ctx, sessionID)
}

func (e *Engine) requireOwner(ctx context.Context, ident *auth.Identity, quizID string) error {
	if ident == nil {
		return quiz.ErrUnauthorized
	}
	q, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if q.OwnerID != ident.UserID {
		return quiz.ErrUnauthorized
	}
	return nil
}

func (e *Engine) releaseCode(ctx context.Context, sess *quiz.Session) {
	if err := e.codes.Release(ctx, sess.Code); err != nil {
		e.log.Error("releasing join code", "sessionId", sess.ID, "code", sess.Code, "err", err)
	}
}

func (e *Engine) publishStarted(ctx context.Context, sess *quiz.Session) {
	ev := events.SessionEvent{SessionID: sess.ID, QuizID: sess.QuizID, Code: sess.Code, OccurredAt: e.now()}
	if err := e.events.SessionStarted(ctx, ev); err != nil {
		e.log.Error("publishing session.started", "sessionId", sess.ID, "err", err)
	}
}

func (e *Engine) publishEnded(ctx context.Context, sess *quiz.Session) {
	ev := events.SessionEvent{SessionID: sess.ID, QuizID: sess.QuizID, Code: sess.Code, OccurredAt: e.now()}
	if err := e.events.SessionEnded(ctx, ev); err != nil {
		e.log.Error("publishing session.ended", "sessionId", sess.ID, "err", err)
	}
}
