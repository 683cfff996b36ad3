package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// MemoryStore implements Store in process memory for tests and single-node
// demo runs. All methods are safe for concurrent use.
type MemoryStore struct {
	mu           sync.Mutex
	quizzes      map[string]*quiz.Quiz
	questions    map[string][]quiz.Question // by quiz id, ordered
	sessions     map[string]*quiz.Session
	participants map[string]*quiz.Participant
	answers      map[string]*quiz.Answer // by composite key
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quizzes:      make(map[string]*quiz.Quiz),
		questions:    make(map[string][]quiz.Question),
		sessions:     make(map[string]*quiz.Session),
		participants: make(map[string]*quiz.Participant),
		answers:      make(map[string]*quiz.Answer),
	}
}

func answerKey(sessionID, participantID, questionID string) string {
	return sessionID + "/" + participantID + "/" + questionID
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// CreateQuiz stores a quiz and its questions.
func (s *MemoryStore) CreateQuiz(ctx context.Context, q *quiz.Quiz, questions []quiz.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cq := *q
	s.quizzes[q.ID] = &cq

	qs := make([]quiz.Question, len(questions))
	copy(qs, questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })
	s.questions[q.ID] = qs
	return nil
}

// GetQuiz retrieves a quiz by id.
func (s *MemoryStore) GetQuiz(ctx context.Context, quizID string) (*quiz.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quizzes[quizID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	cq := *q
	return &cq, nil
}

// ListQuizzesByOwner retrieves the quizzes a host created, newest first.
func (s *MemoryStore) ListQuizzesByOwner(ctx context.Context, ownerID string) ([]*quiz.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var quizzes []*quiz.Quiz
	for _, q := range s.quizzes {
		if q.OwnerID == ownerID {
			cq := *q
			quizzes = append(quizzes, &cq)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt) })
	return quizzes, nil
}

// GetQuestions retrieves a quiz's questions in order-index order.
func (s *MemoryStore) GetQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	qs, ok := s.questions[quizID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	out := make([]quiz.Question, len(qs))
	copy(out, qs)
	return out, nil
}

// CreateSession stores a new session.
func (s *MemoryStore) CreateSession(ctx context.Context, sess *quiz.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *sess
	s.sessions[sess.ID] = &c
	return nil
}

// GetSession retrieves a session by id.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSessionLocked(sessionID)
}

func (s *MemoryStore) getSessionLocked(sessionID string) (*quiz.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	c := *sess
	return &c, nil
}

// GetSessionByCode resolves a join code, preferring live sessions.
func (s *MemoryStore) GetSessionByCode(ctx context.Context, code string) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *quiz.Session
	for _, sess := range s.sessions {
		if sess.Code != code {
			continue
		}
		if best == nil {
			best = sess
			continue
		}
		bestEnded, sessEnded := best.Ended(), sess.Ended()
		if bestEnded != sessEnded {
			if bestEnded {
				best = sess
			}
			continue
		}
		if sess.CreatedAt.After(best.CreatedAt) {
			best = sess
		}
	}
	if best == nil {
		return nil, quiz.ErrNotFound
	}
	c := *best
	return &c, nil
}

// StartSession performs the waiting -> active transition.
func (s *MemoryStore) StartSession(ctx context.Context, sessionID string, now time.Time) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	if sess.Status != quiz.StatusWaiting {
		return nil, quiz.ErrInvalidTransition
	}
	sess.Status = quiz.StatusActive
	sess.CurrentQuestionIndex = 0
	sess.StartedAt = now
	sess.QuestionStartedAt = now

	c := *sess
	return &c, nil
}

// AdvanceSession performs the compare-and-set advancement under the store
// mutex, mirroring the conditional update of the Postgres implementation.
func (s *MemoryStore) AdvanceSession(ctx context.Context, sessionID string, fromIndex, total int, now time.Time) (*quiz.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false, quiz.ErrNotFound
	}
	if sess.Status != quiz.StatusActive || sess.CurrentQuestionIndex != fromIndex {
		c := *sess
		return &c, false, nil
	}

	sess.CurrentQuestionIndex++
	if sess.CurrentQuestionIndex >= total {
		sess.Status = quiz.StatusEnded
		sess.EndedAt = now
	} else {
		sess.QuestionStartedAt = now
	}

	c := *sess
	return &c, true, nil
}

// EndSession transitions a non-ended session to ended.
func (s *MemoryStore) EndSession(ctx context.Context, sessionID string, now time.Time) (*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	if sess.Status == quiz.StatusEnded {
		return nil, quiz.ErrInvalidTransition
	}
	sess.Status = quiz.StatusEnded
	sess.EndedAt = now

	c := *sess
	return &c, nil
}

// CreateParticipant stores a participant.
func (s *MemoryStore) CreateParticipant(ctx context.Context, p *quiz.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *p
	s.participants[p.ID] = &c
	return nil
}

// GetParticipant retrieves a participant by id.
func (s *MemoryStore) GetParticipant(ctx context.Context, participantID string) (*quiz.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	c := *p
	return &c, nil
}

// ListParticipants retrieves a session's participants in join order.
func (s *MemoryStore) ListParticipants(ctx context.Context, sessionID string) ([]*quiz.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var participants []*quiz.Participant
	for _, p := range s.participants {
		if p.SessionID == sessionID {
			c := *p
			participants = append(participants, &c)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		if !participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].JoinedAt.Before(participants[j].JoinedAt)
		}
		return participants[i].ID < participants[j].ID
	})
	return participants, nil
}

// CountParticipants counts a session's participants.
func (s *MemoryStore) CountParticipants(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.participants {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

// UpsertAnswer overwrites the ledger row for the answer's composite key.
func (s *MemoryStore) UpsertAnswer(ctx context.Context, a *quiz.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *a
	s.answers[answerKey(a.SessionID, a.ParticipantID, a.QuestionID)] = &c
	return nil
}

// GetAnswer retrieves the ledger row for a composite key.
func (s *MemoryStore) GetAnswer(ctx context.Context, sessionID, participantID, questionID string) (*quiz.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[answerKey(sessionID, participantID, questionID)]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	c := *a
	return &c, nil
}

// CountAnswered counts distinct participants with a non-sentinel answer for
// the question.
func (s *MemoryStore) CountAnswered(ctx context.Context, sessionID, questionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.answers {
		if a.SessionID == sessionID && a.QuestionID == questionID && !a.TimedOut() {
			n++
		}
	}
	return n, nil
}

// ListAnswersBySession retrieves every ledger row for a session.
func (s *MemoryStore) ListAnswersBySession(ctx context.Context, sessionID string) ([]*quiz.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var answers []*quiz.Answer
	for _, a := range s.answers {
		if a.SessionID == sessionID {
			c := *a
			answers = append(answers, &c)
		}
	}
	return answers, nil
}

// ListExpiredSessions returns non-ended sessions whose quiz expiry has
// passed.
func (s *MemoryStore) ListExpiredSessions(ctx context.Context, now time.Time) ([]*quiz.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []*quiz.Session
	for _, sess := range s.sessions {
		if sess.Ended() {
			continue
		}
		q, ok := s.quizzes[sess.QuizID]
		if !ok || !q.ExpiresAt.Before(now) {
			continue
		}
		c := *sess
		sessions = append(sessions, &c)
	}
	return sessions, nil
}
