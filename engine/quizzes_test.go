package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/quiz"
)

func TestCreateQuizDefaults(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)

	q, questions, err := e.CreateQuiz(ctx, hostIdentity(), &NewQuiz{
		Title: "  geography  ",
		Questions: []NewQuestion{
			{Text: "q1", Options: []string{"a", "b"}, CorrectIndex: 0},
			{Text: "q2", Options: []string{"a", "b", "c"}, CorrectIndex: 2, Points: 50},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "geography", q.Title)
	assert.Equal(t, quiz.DefaultTimeLimit, q.TimeLimit)
	assert.Equal(t, clock.Now().Add(24*time.Hour), q.ExpiresAt)
	assert.Equal(t, "host-1", q.OwnerID)

	require.Len(t, questions, 2)
	assert.Equal(t, 0, questions[0].OrderIndex)
	assert.Equal(t, 1, questions[1].OrderIndex)
	assert.Equal(t, 100, questions[0].Points)
	assert.Equal(t, 50, questions[1].Points)
}

func TestCreateQuizValidation(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	_, _, err := e.CreateQuiz(ctx, nil, &NewQuiz{Title: "x"})
	assert.ErrorIs(t, err, quiz.ErrUnauthorized)

	_, _, err = e.CreateQuiz(ctx, hostIdentity(), &NewQuiz{Title: "  "})
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)

	_, _, err = e.CreateQuiz(ctx, hostIdentity(), &NewQuiz{Title: "x"})
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)

	// One option is not a choice.
	_, _, err = e.CreateQuiz(ctx, hostIdentity(), &NewQuiz{
		Title:     "x",
		Questions: []NewQuestion{{Text: "q", Options: []string{"only"}, CorrectIndex: 0}},
	})
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)

	// Correct index must point into the options.
	_, _, err = e.CreateQuiz(ctx, hostIdentity(), &NewQuiz{
		Title:     "x",
		Questions: []NewQuestion{{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 2}},
	})
	assert.ErrorIs(t, err, quiz.ErrInvalidQuiz)
}

func TestGetQuizOwnerOnly(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	q, _ := createTestQuiz(t, e, 1)

	got, questions, err := e.GetQuiz(ctx, hostIdentity(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)
	assert.Len(t, questions, 1)

	_, _, err = e.GetQuiz(ctx, &auth.Identity{UserID: "intruder"}, q.ID)
	assert.ErrorIs(t, err, quiz.ErrUnauthorized)

	_, _, err = e.GetQuiz(ctx, hostIdentity(), "missing")
	assert.ErrorIs(t, err, quiz.ErrNotFound)
}

func TestListQuizzes(t *testing.T) {
	ctx := context.Background()
	e, clock, _ := newTestEngine(t)

	createTestQuiz(t, e, 1)
	clock.Advance(time.Second)
	second, _ := createTestQuiz(t, e, 1)

	quizzes, err := e.ListQuizzes(ctx, hostIdentity())
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	// Newest first.
	assert.Equal(t, second.ID, quizzes[0].ID)

	other, err := e.ListQuizzes(ctx, &auth.Identity{UserID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, other)
}
