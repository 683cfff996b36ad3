package engine

import (
	"context"
	"fmt"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// Advancement is the result of a next-question request. Advanced reports
// whether this particular call moved the index; on a lost race the caller
// still gets the index the winner produced, so all concurrent callers
// converge on the same view.
type Advancement struct {
	CurrentQuestionIndex int  `json:"currentQuestionIndex"`
	TotalQuestions       int  `json:"totalQuestions"`
	IsComplete           bool `json:"isComplete"`
	Advanced             bool `json:"advanced"`
}

// Advance moves the session to the next question, or to ended when the
// current question is the last. Any client may call it: each participant
// runs its own countdown and fires when it expires, so concurrent calls
// for the same index are expected. fromIndex is the index the caller was
// viewing; the store applies the move as a single compare-and-set on it,
// so only the first caller per index performs the transition and callers
// holding a superseded index get the winner's view back unchanged. A
// negative fromIndex targets whatever index the session currently holds.
func (e *Engine) Advance(ctx context.Context, sessionID string, fromIndex int) (*Advancement, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != quiz.StatusActive {
		return nil, fmt.Errorf("%w: session is %s", quiz.ErrInvalidState, sess.Status)
	}
	if fromIndex < 0 {
		fromIndex = sess.CurrentQuestionIndex
	}

	questions, err := e.store.GetQuestions(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}
	total := len(questions)

	updated, advanced, err := e.store.AdvanceSession(ctx, sessionID, fromIndex, total, e.now())
	if err != nil {
		return nil, err
	}

	if advanced && updated.Ended() {
		e.releaseCode(ctx, updated)
		e.publishEnded(ctx, updated)
		e.log.Info("session ended on last question", "sessionId", sessionID)
	} else if advanced {
		e.log.Info("session advanced", "sessionId", sessionID, "index", updated.CurrentQuestionIndex)
	}

	return &Advancement{
		CurrentQuestionIndex: updated.CurrentQuestionIndex,
		TotalQuestions:       total,
		IsComplete:           updated.Ended(),
		Advanced:             advanced,
	}, nil
}
