package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// SubmitAnswer is the request payload of the submit endpoint. TimedOut marks
// a client whose countdown expired without a choice; OptionIndex is ignored
// in that case.
type SubmitAnswer struct {
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	OptionIndex   int    `json:"optionIndex"`
	TimedOut      bool   `json:"timedOut,omitempty"`
}

// SubmitResult is the submit response. The aggregate fields let the host
// client show answer progress and trigger early advancement without a
// separate poll.
type SubmitResult struct {
	Accepted          bool    `json:"accepted"`
	Correct           bool    `json:"correct"`
	Points            int     `json:"points"`
	CorrectIndex      int     `json:"correctIndex"`
	Explanation       string  `json:"explanation,omitempty"`
	TimeRemaining     float64 `json:"timeRemaining"`
	AnsweredCount     int     `json:"answeredCount"`
	TotalParticipants int     `json:"totalParticipants"`
	AllAnswered       bool    `json:"allAnswered"`
}

// Submit records an answer for the session's current question. The write is
// an upsert on (session, participant, question): a resubmission replaces the
// previous row and is rescored from the clock at arrival time. A timeout
// sentinel is terminal for its slot, and a sentinel never displaces a real
// answer; either duplicate is absorbed with Accepted=false rather than
// rejected, since clients retry submissions they never saw acknowledged.
func (e *Engine) Submit(ctx context.Context, sessionID string, req *SubmitAnswer) (*SubmitResult, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != quiz.StatusActive {
		return nil, fmt.Errorf("%w: session is %s", quiz.ErrInvalidState, sess.Status)
	}

	participant, err := e.store.GetParticipant(ctx, req.ParticipantID)
	if err != nil {
		return nil, err
	}
	if participant.SessionID != sessionID {
		return nil, fmt.Errorf("%w: participant belongs to another session", quiz.ErrNotFound)
	}

	questions, err := e.store.GetQuestions(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}
	if sess.CurrentQuestionIndex >= len(questions) {
		return nil, fmt.Errorf("%w: no current question", quiz.ErrInvalidState)
	}
	question := questions[sess.CurrentQuestionIndex]

	// A submission for any question other than the current one is stale:
	// the session advanced while it was in flight.
	if req.QuestionID != question.ID {
		return nil, fmt.Errorf("%w: question %s is not current", quiz.ErrInvalidState, req.QuestionID)
	}

	optionIndex := req.OptionIndex
	if req.TimedOut {
		optionIndex = quiz.SentinelNoAnswer
	}
	if optionIndex != quiz.SentinelNoAnswer && (optionIndex < 0 || optionIndex >= len(question.Options)) {
		return nil, fmt.Errorf("%w: option index %d out of bounds", quiz.ErrInvalidQuiz, optionIndex)
	}

	q, err := e.store.GetQuiz(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	remaining := quiz.Remaining(sess.QuestionStartedAt, now, q.TimeLimit)

	existing, err := e.store.GetAnswer(ctx, sessionID, req.ParticipantID, question.ID)
	if err != nil && !errors.Is(err, quiz.ErrNotFound) {
		return nil, err
	}

	accepted := true
	switch {
	case existing != nil && existing.TimedOut():
		// Timeout already sealed this slot.
		accepted = false
	case existing != nil && optionIndex == quiz.SentinelNoAnswer:
		// A late timeout report must not erase a recorded choice.
		accepted = false
	}

	answer := existing
	if accepted {
		correct := optionIndex == question.CorrectIndex
		answer = &quiz.Answer{
			SessionID:     sessionID,
			ParticipantID: req.ParticipantID,
			QuestionID:    question.ID,
			OptionIndex:   optionIndex,
			TimeRemaining: remaining.Seconds(),
			Points:        e.award(correct, remaining, q.TimeLimit, question.Points),
			CreatedAt:     now,
		}
		if err := e.store.UpsertAnswer(ctx, answer); err != nil {
			return nil, fmt.Errorf("recording answer: %w", err)
		}
	}

	answered, err := e.store.CountAnswered(ctx, sessionID, question.ID)
	if err != nil {
		return nil, err
	}
	total, err := e.store.CountParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res := &SubmitResult{
		Accepted:          accepted,
		CorrectIndex:      question.CorrectIndex,
		Explanation:       question.Explanation,
		TimeRemaining:     remaining.Seconds(),
		AnsweredCount:     answered,
		TotalParticipants: total,
		AllAnswered:       total > 0 && answered >= total,
	}
	if answer != nil {
		res.Correct = !answer.TimedOut() && answer.OptionIndex == question.CorrectIndex
		res.Points = answer.Points
	}
	return res, nil
}

// award scales the time-bonus score to the question's point weight. The
// formula tops out at BasePoints+BonusRange, so a question worth that much
// maps one to one.
func (e *Engine) award(correct bool, remaining, limit time.Duration, questionPoints int) int {
	raw := e.scoring.Score(correct, remaining, limit)
	max := e.scoring.BasePoints + e.scoring.BonusRange
	if max <= 0 || questionPoints == max {
		return raw
	}
	return int(math.Round(float64(raw) * float64(questionPoints) / float64(max)))
}
