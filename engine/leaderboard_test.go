package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 2)
	sess, ps := startedSession(t, e, clock, q.ID, "ada", "beth", "carl")

	// Question 1: ada answers fast and right, beth slow and right, carl
	// wrong.
	clock.Advance(2 * time.Second)
	_, err := e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 1})
	require.NoError(t, err)
	clock.Advance(10 * time.Second)
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[1].ID, QuestionID: questions[0].ID, OptionIndex: 1})
	require.NoError(t, err)
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[2].ID, QuestionID: questions[0].ID, OptionIndex: 0})
	require.NoError(t, err)

	_, err = e.Advance(ctx, sess.ID, -1)
	require.NoError(t, err)

	// Question 2: beth answers right, ada times out, carl never submits.
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[1].ID, QuestionID: questions[1].ID, OptionIndex: 1})
	require.NoError(t, err)
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[0].ID, QuestionID: questions[1].ID, TimedOut: true})
	require.NoError(t, err)

	standings, err := e.Leaderboard(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	// beth: 58 + 100 = 158 beats ada's 93. carl answered once, wrong.
	assert.Equal(t, ps[1].ID, standings[0].ParticipantID)
	assert.Equal(t, "beth", standings[0].Name)
	assert.Equal(t, 158, standings[0].TotalScore)
	assert.Equal(t, 2, standings[0].CorrectCount)
	assert.Equal(t, 2, standings[0].TotalAnswered)
	assert.InDelta(t, 100.0, standings[0].Accuracy, 0.001)

	assert.Equal(t, ps[0].ID, standings[1].ParticipantID)
	assert.Equal(t, 93, standings[1].TotalScore)
	assert.Equal(t, 1, standings[1].CorrectCount)
	// The timeout sentinel is not an answered question.
	assert.Equal(t, 1, standings[1].TotalAnswered)

	assert.Equal(t, ps[2].ID, standings[2].ParticipantID)
	assert.Equal(t, 0, standings[2].TotalScore)
	assert.Equal(t, 0, standings[2].CorrectCount)
	assert.Equal(t, 1, standings[2].TotalAnswered)
	assert.InDelta(t, 0.0, standings[2].Accuracy, 0.001)
}

func TestLeaderboardTieBreaksByJoinOrder(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada", "beth")

	// Both wrong: identical zero scores.
	_, err := e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[1].ID, QuestionID: questions[0].ID, OptionIndex: 0})
	require.NoError(t, err)
	_, err = e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 2})
	require.NoError(t, err)

	standings, err := e.Leaderboard(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, ps[0].ID, standings[0].ParticipantID)
	assert.Equal(t, ps[1].ID, standings[1].ParticipantID)
}

func TestLeaderboardIncludesSilentParticipants(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, _ := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada")

	standings, err := e.Leaderboard(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, ps[0].ID, standings[0].ParticipantID)
	assert.Zero(t, standings[0].TotalScore)
	assert.Zero(t, standings[0].TotalAnswered)
	assert.Zero(t, standings[0].Accuracy)

	_, err = e.Leaderboard(ctx, "no-such-session")
	assert.ErrorIs(t, err, quiz.ErrNotFound)
}

func TestLeaderboardAvailableAfterEnd(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)
	q, questions := createTestQuiz(t, e, 1)
	sess, ps := startedSession(t, e, clock, q.ID, "ada")

	_, err := e.Submit(ctx, sess.ID, &SubmitAnswer{ParticipantID: ps[0].ID, QuestionID: questions[0].ID, OptionIndex: 1})
	require.NoError(t, err)
	_, err = e.End(ctx, hostIdentity(), sess.ID)
	require.NoError(t, err)

	standings, err := e.Leaderboard(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 100, standings[0].TotalScore)
}
