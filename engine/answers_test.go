package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

func TestSubmitScoresFromServerClock(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 2)
	sess, ps := startedSession(t, e, clock, q.ID, "ada", "beth")

	// Half of the 20 second clock is gone when the answer arrives.
	clock.Advance(10 * time.Second)

	res, err := e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID,
		QuestionID:    questions[0].ID,
		OptionIndex:   1,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Correct)
	assert.Equal(t, 65, res.Points)
	assert.Equal(t, 1, res.CorrectIndex)
	assert.InDelta(t, 10.0, res.TimeRemaining, 0.001)
	assert.Equal(t, 1, res.AnsweredCount)
	assert.Equal(t, 2, res.TotalParticipants)
	assert.False(t, res.AllAnswered)

	// A wrong answer scores zero however fast it was.
	res, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[1].ID,
		QuestionID:    questions[0].ID,
		OptionIndex:   2,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.Points)
	assert.Equal(t, 2, res.AnsweredCount)
	assert.True(t, res.AllAnswered)
}

func TestSubmitAfterClockExpiry(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada")

	// The question clock ran out; a correct answer still lands but only
	// earns the base points.
	clock.Advance(30 * time.Second)

	res, err := e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID,
		QuestionID:    questions[0].ID,
		OptionIndex:   1,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 30, res.Points)
	assert.Zero(t, res.TimeRemaining)
}

func TestSubmitResubmissionOverwrites(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada")

	clock.Advance(2 * time.Second)
	res, err := e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	require.NoError(t, err)
	require.True(t, res.Correct)
	firstPoints := res.Points

	// Changing the answer replaces the row and rescores from the later
	// arrival time; the count of answered participants does not grow.
	clock.Advance(8 * time.Second)
	res, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Less(t, res.Points, firstPoints)
	assert.Equal(t, 1, res.AnsweredCount)

	a, err := e.store.GetAnswer(ctx, sess.ID, ps[0].ID, questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, res.Points, a.Points)
}

func TestSubmitTimeoutSentinel(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada", "beth")

	res, err := e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, TimedOut: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.Correct)
	assert.Zero(t, res.Points)
	// Sentinels occupy the slot but do not count toward early advancement.
	assert.Equal(t, 0, res.AnsweredCount)
	assert.False(t, res.AllAnswered)

	// The timeout seals the slot: a real answer arriving afterwards is
	// absorbed, not recorded.
	res, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Zero(t, res.Points)

	a, err := e.store.GetAnswer(ctx, sess.ID, ps[0].ID, questions[0].ID)
	require.NoError(t, err)
	assert.True(t, a.TimedOut())
}

func TestSubmitLateTimeoutKeepsAnswer(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada")

	res, err := e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	require.NoError(t, err)
	points := res.Points

	// A delayed timeout report from the client must not erase the choice.
	res, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, TimedOut: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, points, res.Points)

	a, err := e.store.GetAnswer(ctx, sess.ID, ps[0].ID, questions[0].ID)
	require.NoError(t, err)
	assert.False(t, a.TimedOut())
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 2)
	sess, ps := startedSession(t, e, clock, q.ID, "ada")

	// Stale submission: the target question is not the current one.
	_, err := e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[1].ID, OptionIndex: 1,
	})
	assert.ErrorIs(t, err, quiz.ErrInvalidState)

	// Option index outside the question's options.
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 7,
	})
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)

	// Unknown participant.
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: "nobody", QuestionID: questions[0].ID, OptionIndex: 1,
	})
	assert.ErrorIs(t, err, quiz.ErrNotFound)

	// A participant of a different session cannot write into this one.
	otherQuiz, _ := createTestQuiz(t, e, 1)
	_, otherPs := startedSession(t, e, clock, otherQuiz.ID, "eve")
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: otherPs[0].ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	assert.ErrorIs(t, err, quiz.ErrNotFound)
}

func TestSubmitLifecycleBoundaries(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, err := e.CreateSession(ctx, hostIdentity(), q.ID)
	require.NoError(t, err)
	p, _, err := e.Join(ctx, sess.Code, "ada", "")
	require.NoError(t, err)

	// No submissions while waiting.
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: p.ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	assert.ErrorIs(t, err, quiz.ErrInvalidState)

	_, err = e.Start(ctx, hostIdentity(), sess.ID)
	require.NoError(t, err)
	_, err = e.End(ctx, hostIdentity(), sess.ID)
	require.NoError(t, err)

	// Nor once ended.
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{
		ParticipantID: p.ID, QuestionID: questions[0].ID, OptionIndex: 1,
	})
	assert.ErrorIs(t, err, quiz.ErrInvalidState)
}
