package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/quiz"
)

const testSecret = "handler-test-secret"

func setupTestHandler(t *testing.T) (*Engine, *testClock, chi.Router, string) {
	t.Helper()
	e, clock, _ := newTestEngine(t)
	handler := NewHandler(e, auth.NewJWTVerifier(testSecret))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	token, err := auth.NewToken(testSecret, *hostIdentity(), time.Hour)
	require.NoError(t, err)
	return e, clock, r, token
}

func doJSON(t *testing.T, r chi.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return &v
}

// TestHandlerGreenPath drives a full quiz round over HTTP: author a quiz,
// open a session, join, start, answer, advance to the end and read the
// leaderboard.
func TestHandlerGreenPath(t *testing.T) {
	_, clock, r, token := setupTestHandler(t)

	// Author a two-question quiz.
	w := doJSON(t, r, "POST", "/api/quizzes", token, &NewQuiz{
		Title:            "flags of the world",
		TimeLimitSeconds: 20,
		Questions: []NewQuestion{
			{Text: "first", Options: []string{"a", "b", "c"}, CorrectIndex: 1},
			{Text: "second", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[quizDetail](t, w)
	require.Len(t, created.Questions, 2)

	// Open a session.
	w = doJSON(t, r, "POST", "/api/sessions", token, map[string]string{"quizId": created.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sess := decodeBody[quiz.Session](t, w)
	assert.True(t, quiz.ValidJoinCode(sess.Code))

	// A player joins by code, no token needed.
	w = doJSON(t, r, "POST", "/api/sessions/join", "", map[string]string{"code": sess.Code, "name": "ada"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	joined := decodeBody[joinResponse](t, w)
	assert.Equal(t, sess.ID, joined.SessionID)

	// Start.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/sessions/%s/start", sess.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The player polls the current question; the correct answer is not in
	// the payload.
	w = doJSON(t, r, "GET", fmt.Sprintf("/api/sessions/%s/current-question", sess.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctIndex")
	cq := decodeBody[CurrentQuestion](t, w)
	require.NotNil(t, cq.Question)
	assert.Equal(t, "first", cq.Question.Text)

	// Submit a correct answer with half the clock left.
	clock.Advance(10 * time.Second)
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/sessions/%s/submit-answer", sess.ID), "", &SubmitAnswer{
		ParticipantID: joined.ParticipantID,
		QuestionID:    cq.Question.ID,
		OptionIndex:   1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[SubmitResult](t, w)
	assert.True(t, res.Correct)
	assert.Equal(t, 65, res.Points)
	assert.True(t, res.AllAnswered)

	// A participant's countdown fires; no token needed and the status poll
	// reflects the new index.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/sessions/%s/next-question", sess.ID), "", map[string]int{"currentQuestionIndex": 0})
	require.Equal(t, http.StatusOK, w.Code)
	adv := decodeBody[Advancement](t, w)
	assert.Equal(t, 1, adv.CurrentQuestionIndex)
	assert.False(t, adv.IsComplete)

	w = doJSON(t, r, "GET", fmt.Sprintf("/api/sessions/%s/status", sess.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeBody[Status](t, w)
	assert.Equal(t, quiz.StatusActive, st.Status)
	assert.Equal(t, 1, st.CurrentQuestionIndex)

	// Advancing past the last question ends the session. The host button
	// sends no body, which targets whatever index is current.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/sessions/%s/next-question", sess.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	adv = decodeBody[Advancement](t, w)
	assert.True(t, adv.IsComplete)

	// Leaderboard is readable after the end.
	w = doJSON(t, r, "GET", fmt.Sprintf("/api/sessions/%s/leaderboard", sess.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var standings []quiz.Standing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &standings))
	require.Len(t, standings, 1)
	assert.Equal(t, 65, standings[0].TotalScore)
}

func TestHandlerAuthRequired(t *testing.T) {
	_, _, r, _ := setupTestHandler(t)

	w := doJSON(t, r, "POST", "/api/quizzes", "", &NewQuiz{Title: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, "POST", "/api/sessions", "garbage-token", map[string]string{"quizId": "q"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlerErrorMapping(t *testing.T) {
	e, _, r, token := setupTestHandler(t)
	ctx := httptest.NewRequest("GET", "/", nil).Context()

	// Unknown session: 404.
	w := doJSON(t, r, "GET", "/api/sessions/nope/status", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Foreign owner: 403.
	q, _ := createTestQuiz(t, e, 1)
	otherToken, err := auth.NewToken(testSecret, auth.Identity{UserID: "intruder"}, time.Hour)
	require.NoError(t, err)
	w = doJSON(t, r, "POST", "/api/sessions", otherToken, map[string]string{"quizId": q.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Starting an empty lobby: 400.
	sess, err := e.CreateSession(ctx, hostIdentity(), q.ID)
	require.NoError(t, err)
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/sessions/%s/start", sess.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Submitting while waiting: 409.
	p, _, err := e.Join(ctx, sess.Code, "ada", "")
	require.NoError(t, err)
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/sessions/%s/submit-answer", sess.ID), "", &SubmitAnswer{
		ParticipantID: p.ID, QuestionID: "whatever",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Malformed body: 400.
	req := httptest.NewRequest("POST", "/api/sessions/join", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerJoinValidation(t *testing.T) {
	_, _, r, _ := setupTestHandler(t)

	w := doJSON(t, r, "POST", "/api/sessions/join", "", map[string]string{"name": "ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "POST", "/api/sessions/join", "", map[string]string{"code": "ZZZZZZ", "name": "ada"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
