package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnasTanwar5/quiz-burst/api"
	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// Handler exposes the engine over HTTP. Host routes (authoring, session
// control) sit behind token auth; participant routes are public since players
// join by code, without an account.
type Handler struct {
	engine   *Engine
	verifier auth.Verifier
	log      *slog.Logger
}

func NewHandler(e *Engine, verifier auth.Verifier) *Handler {
	return &Handler{engine: e, verifier: verifier, log: e.log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Host routes: identity required, ownership enforced by the engine.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.verifier))
		r.Post("/api/quizzes", h.createQuiz)
		r.Get("/api/quizzes", h.listQuizzes)
		r.Get("/api/quizzes/{quizID}", h.getQuiz)
		r.Post("/api/sessions", h.createSession)
		r.Post("/api/sessions/{sessionID}/start", h.startSession)
		r.Post("/api/sessions/{sessionID}/end", h.endSession)
	})

	// Participant routes: the join code is the only credential. next-question
	// is public because every client fires it when its local countdown hits
	// zero; the compare-and-set in the engine keeps the race harmless.
	r.Post("/api/sessions/join", h.joinSession)
	r.Post("/api/sessions/{sessionID}/next-question", h.nextQuestion)
	r.Get("/api/sessions/{sessionID}", h.getSession)
	r.Get("/api/sessions/{sessionID}/status", h.sessionStatus)
	r.Get("/api/sessions/{sessionID}/current-question", h.currentQuestion)
	r.Post("/api/sessions/{sessionID}/submit-answer", h.submitAnswer)
	r.Get("/api/sessions/{sessionID}/participants", h.participants)
	r.Get("/api/sessions/{sessionID}/leaderboard", h.leaderboard)
}

// identity unwraps the authenticated caller, nil when the route is public
// or the token was absent.
func identity(r *http.Request) *auth.Identity {
	ident, _ := auth.FromContext(r.Context())
	return ident
}

// quizDetail is the authoring view: the quiz plus its ordered questions,
// correct indices included. Only the owner ever receives it.
type quizDetail struct {
	*quiz.Quiz
	Questions []quiz.Question `json:"questions"`
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	req, err := api.DecodeMessage[NewQuiz](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	q, questions, err := h.engine.CreateQuiz(r.Context(), identity(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &quizDetail{Quiz: q, Questions: questions})
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.engine.ListQuizzes(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	q, questions, err := h.engine.GetQuiz(r.Context(), identity(r), chi.URLParam(r, "quizID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &quizDetail{Quiz: q, Questions: questions})
}

type createSessionRequest struct {
	QuizID string `json:"quizId"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	req, err := api.DecodeMessage[createSessionRequest](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.QuizID == "" {
		http.Error(w, "Missing quiz id", http.StatusBadRequest)
		return
	}

	sess, err := h.engine.CreateSession(r.Context(), identity(r), req.QuizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sess)
}

type joinRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	UserID string `json:"userId,omitempty"`
}

type joinResponse struct {
	ParticipantID string             `json:"participantId"`
	SessionID     string             `json:"sessionId"`
	Status        quiz.SessionStatus `json:"status"`
	QuizID        string             `json:"quizId"`
}

func (h *Handler) joinSession(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	req, err := api.DecodeMessage[joinRequest](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "Missing join code", http.StatusBadRequest)
		return
	}

	p, sess, err := h.engine.Join(r.Context(), req.Code, req.Name, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &joinResponse{
		ParticipantID: p.ID,
		SessionID:     sess.ID,
		Status:        sess.Status,
		QuizID:        sess.QuizID,
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.Start(r.Context(), identity(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.End(r.Context(), identity(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

// advanceRequest carries the question index the caller was viewing when its
// countdown expired. The body is optional; without it the engine targets the
// session's current index.
type advanceRequest struct {
	CurrentQuestionIndex *int `json:"currentQuestionIndex"`
}

func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	fromIndex := -1
	req, err := api.DecodeMessage[advanceRequest](r.Body)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.CurrentQuestionIndex != nil {
		fromIndex = *req.CurrentQuestionIndex
	}

	adv, err := h.engine.Advance(r.Context(), chi.URLParam(r, "sessionID"), fromIndex)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, adv)
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.GetStatus(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *Handler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	cq, err := h.engine.GetCurrentQuestion(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cq)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	req, err := api.DecodeMessage[SubmitAnswer](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}
	if req.ParticipantID == "" || req.QuestionID == "" {
		http.Error(w, "Missing participant or question id", http.StatusBadRequest)
		return
	}

	res, err := h.engine.Submit(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) participants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.engine.Participants(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.engine.Leaderboard(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, standings)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encoding response", "err", err)
	}
}

// writeError maps domain errors to HTTP statuses. Conflicting lifecycle
// operations map to 409 so clients can tell "retry after a poll" apart
// from a malformed request.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, quiz.ErrNoParticipants), errors.Is(err, quiz.ErrInvalidQuiz):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrInvalidState), errors.Is(err, quiz.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error("request failed", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
