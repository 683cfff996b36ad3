package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// PostgresStore implements Store with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN and creates the
// schema if it does not exist yet.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quizzes (
		id VARCHAR(64) PRIMARY KEY,
		owner_id VARCHAR(64) NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		time_limit_seconds INT NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS questions (
		id VARCHAR(64) PRIMARY KEY,
		quiz_id VARCHAR(64) NOT NULL REFERENCES quizzes(id),
		question_text TEXT NOT NULL,
		options TEXT[] NOT NULL,
		correct_index INT NOT NULL,
		points INT NOT NULL,
		hint TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		order_index INT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id VARCHAR(64) PRIMARY KEY,
		quiz_id VARCHAR(64) NOT NULL REFERENCES quizzes(id),
		code VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		current_question_index INT NOT NULL DEFAULT 0,
		question_started_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		started_at TIMESTAMP WITH TIME ZONE,
		ended_at TIMESTAMP WITH TIME ZONE
	);

	CREATE TABLE IF NOT EXISTS participants (
		id VARCHAR(64) PRIMARY KEY,
		session_id VARCHAR(64) NOT NULL REFERENCES quiz_sessions(id),
		user_id VARCHAR(64) NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS answers (
		session_id VARCHAR(64) NOT NULL REFERENCES quiz_sessions(id),
		participant_id VARCHAR(64) NOT NULL REFERENCES participants(id),
		question_id VARCHAR(64) NOT NULL REFERENCES questions(id),
		option_index INT NOT NULL,
		time_remaining DOUBLE PRECISION NOT NULL,
		points INT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		PRIMARY KEY (session_id, participant_id, question_id)
	);

	CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id, order_index);
	CREATE INDEX IF NOT EXISTS idx_sessions_code ON quiz_sessions(code);
	CREATE INDEX IF NOT EXISTS idx_sessions_quiz ON quiz_sessions(quiz_id);
	CREATE INDEX IF NOT EXISTS idx_participants_session ON participants(session_id, joined_at);
	CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(session_id, question_id);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateQuiz persists a quiz and its questions in one transaction.
func (s *PostgresStore) CreateQuiz(ctx context.Context, q *quiz.Quiz, questions []quiz.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO quizzes (id, owner_id, title, description, time_limit_seconds, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.OwnerID, q.Title, q.Description, int(q.TimeLimit.Seconds()), q.ExpiresAt, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting quiz: %w", err)
	}

	for i := range questions {
		qu := &questions[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (id, quiz_id, question_text, options, correct_index, points, hint, explanation, order_index, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			qu.ID, qu.QuizID, qu.Text, pq.Array(qu.Options), qu.CorrectIndex, qu.Points, qu.Hint, qu.Explanation, qu.OrderIndex, qu.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting question %d: %w", qu.OrderIndex, err)
		}
	}

	return tx.Commit()
}

// GetQuiz retrieves a quiz by id.
func (s *PostgresStore) GetQuiz(ctx context.Context, quizID string) (*quiz.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, time_limit_seconds, expires_at, created_at
		FROM quizzes WHERE id = $1`, quizID)
	return scanQuiz(row)
}

// ListQuizzesByOwner retrieves the quizzes a host created, newest first.
func (s *PostgresStore) ListQuizzesByOwner(ctx context.Context, ownerID string) ([]*quiz.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, time_limit_seconds, expires_at, created_at
		FROM quizzes WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*quiz.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// GetQuestions retrieves a quiz's questions ordered by order index.
func (s *PostgresStore) GetQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quiz_id, question_text, options, correct_index, points, hint, explanation, order_index, created_at
		FROM questions WHERE quiz_id = $1 ORDER BY order_index`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []quiz.Question
	for rows.Next() {
		var q quiz.Question
		var options pq.StringArray
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &options, &q.CorrectIndex, &q.Points, &q.Hint, &q.Explanation, &q.OrderIndex, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning question row: %w", err)
		}
		q.Options = options
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateSession persists a new session record.
func (s *PostgresStore) CreateSession(ctx context.Context, sess *quiz.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_sessions (id, quiz_id, code, status, current_question_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, sess.QuizID, sess.Code, string(sess.Status), sess.CurrentQuestionIndex, sess.CreatedAt,
	)
	return err
}

const sessionColumns = `id, quiz_id, code, status, current_question_index, question_started_at, created_at, started_at, ended_at`

// GetSession retrieves a session by id.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*quiz.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE id = $1`, sessionID)
	return scanSession(row)
}

// GetSessionByCode resolves a join code. Live sessions win over ended ones
// that reused the code; among equals the newest wins.
func (s *PostgresStore) GetSessionByCode(ctx context.Context, code string) (*quiz.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions
		 WHERE code = $1
		 ORDER BY (status = 'ended'), created_at DESC
		 LIMIT 1`, code)
	return scanSession(row)
}

// StartSession performs the waiting -> active transition as a conditional
// update.
func (s *PostgresStore) StartSession(ctx context.Context, sessionID string, now time.Time) (*quiz.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE quiz_sessions
		SET status = 'active', current_question_index = 0, started_at = $2, question_started_at = $2
		WHERE id = $1 AND status = 'waiting'
		RETURNING `+sessionColumns, sessionID, now)

	sess, err := scanSession(row)
	if errors.Is(err, quiz.ErrNotFound) {
		// Either the session does not exist or it is past waiting.
		if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
			return nil, getErr
		}
		return nil, quiz.ErrInvalidTransition
	}
	return sess, err
}

// AdvanceSession performs the compare-and-set advancement. The conditional
// update is the only concurrency primitive the engine needs: of any number
// of concurrent calls targeting fromIndex, exactly one matches the WHERE
// clause.
func (s *PostgresStore) AdvanceSession(ctx context.Context, sessionID string, fromIndex, total int, now time.Time) (*quiz.Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE quiz_sessions
		SET current_question_index = current_question_index + 1,
		    question_started_at = CASE WHEN current_question_index + 1 >= $3 THEN question_started_at ELSE $4 END,
		    status = CASE WHEN current_question_index + 1 >= $3 THEN 'ended' ELSE status END,
		    ended_at = CASE WHEN current_question_index + 1 >= $3 THEN $4 ELSE ended_at END
		WHERE id = $1 AND current_question_index = $2 AND status = 'active'
		RETURNING `+sessionColumns, sessionID, fromIndex, total, now)

	sess, err := scanSession(row)
	if errors.Is(err, quiz.ErrNotFound) {
		// Lost the race or the session is not active; report the current
		// state so the caller can resynchronize.
		current, getErr := s.GetSession(ctx, sessionID)
		if getErr != nil {
			return nil, false, getErr
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// EndSession transitions a non-ended session to ended.
func (s *PostgresStore) EndSession(ctx context.Context, sessionID string, now time.Time) (*quiz.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE quiz_sessions
		SET status = 'ended', ended_at = $2
		WHERE id = $1 AND status != 'ended'
		RETURNING `+sessionColumns, sessionID, now)

	sess, err := scanSession(row)
	if errors.Is(err, quiz.ErrNotFound) {
		if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
			return nil, getErr
		}
		return nil, quiz.ErrInvalidTransition
	}
	return sess, err
}

// CreateParticipant persists a participant joining a session.
func (s *PostgresStore) CreateParticipant(ctx context.Context, p *quiz.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, session_id, user_id, name, joined_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SessionID, p.UserID, p.Name, p.JoinedAt,
	)
	return err
}

// GetParticipant retrieves a participant by id.
func (s *PostgresStore) GetParticipant(ctx context.Context, participantID string) (*quiz.Participant, error) {
	var p quiz.Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, user_id, name, joined_at
		FROM participants WHERE id = $1`, participantID).
		Scan(&p.ID, &p.SessionID, &p.UserID, &p.Name, &p.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quiz.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipants retrieves a session's participants in join order.
func (s *PostgresStore) ListParticipants(ctx context.Context, sessionID string) ([]*quiz.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, name, joined_at
		FROM participants WHERE session_id = $1 ORDER BY joined_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*quiz.Participant
	for rows.Next() {
		var p quiz.Participant
		if err := rows.Scan(&p.ID, &p.SessionID, &p.UserID, &p.Name, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

// CountParticipants counts a session's participants.
func (s *PostgresStore) CountParticipants(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

// UpsertAnswer writes the ledger row for the answer's composite key,
// overwriting a previous submission instead of duplicating it.
func (s *PostgresStore) UpsertAnswer(ctx context.Context, a *quiz.Answer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (session_id, participant_id, question_id, option_index, time_remaining, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, participant_id, question_id) DO UPDATE SET
			option_index = EXCLUDED.option_index,
			time_remaining = EXCLUDED.time_remaining,
			points = EXCLUDED.points,
			created_at = EXCLUDED.created_at`,
		a.SessionID, a.ParticipantID, a.QuestionID, a.OptionIndex, a.TimeRemaining, a.Points, a.CreatedAt,
	)
	return err
}

// GetAnswer retrieves the ledger row for a composite key.
func (s *PostgresStore) GetAnswer(ctx context.Context, sessionID, participantID, questionID string) (*quiz.Answer, error) {
	var a quiz.Answer
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, participant_id, question_id, option_index, time_remaining, points, created_at
		FROM answers WHERE session_id = $1 AND participant_id = $2 AND question_id = $3`,
		sessionID, participantID, questionID).
		Scan(&a.SessionID, &a.ParticipantID, &a.QuestionID, &a.OptionIndex, &a.TimeRemaining, &a.Points, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quiz.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountAnswered counts distinct participants with a non-sentinel answer for
// the question.
func (s *PostgresStore) CountAnswered(ctx context.Context, sessionID, questionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT participant_id) FROM answers
		WHERE session_id = $1 AND question_id = $2 AND option_index >= 0`,
		sessionID, questionID).Scan(&n)
	return n, err
}

// ListAnswersBySession retrieves every ledger row for a session.
func (s *PostgresStore) ListAnswersBySession(ctx context.Context, sessionID string) ([]*quiz.Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, participant_id, question_id, option_index, time_remaining, points, created_at
		FROM answers WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*quiz.Answer
	for rows.Next() {
		var a quiz.Answer
		if err := rows.Scan(&a.SessionID, &a.ParticipantID, &a.QuestionID, &a.OptionIndex, &a.TimeRemaining, &a.Points, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning answer row: %w", err)
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

// ListExpiredSessions returns non-ended sessions whose quiz expiry has
// passed.
func (s *PostgresStore) ListExpiredSessions(ctx context.Context, now time.Time) ([]*quiz.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.quiz_id, s.code, s.status, s.current_question_index, s.question_started_at, s.created_at, s.started_at, s.ended_at
		FROM quiz_sessions s JOIN quizzes q ON q.id = s.quiz_id
		WHERE s.status != 'ended' AND q.expires_at < $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*quiz.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row rowScanner) (*quiz.Quiz, error) {
	var q quiz.Quiz
	var timeLimitSeconds int
	err := row.Scan(&q.ID, &q.OwnerID, &q.Title, &q.Description, &timeLimitSeconds, &q.ExpiresAt, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quiz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning quiz row: %w", err)
	}
	q.TimeLimit = time.Duration(timeLimitSeconds) * time.Second
	return &q, nil
}

func scanSession(row rowScanner) (*quiz.Session, error) {
	var sess quiz.Session
	var status string
	var questionStartedAt, startedAt, endedAt sql.NullTime
	err := row.Scan(&sess.ID, &sess.QuizID, &sess.Code, &status, &sess.CurrentQuestionIndex,
		&questionStartedAt, &sess.CreatedAt, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quiz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session row: %w", err)
	}
	sess.Status = quiz.SessionStatus(status)
	if questionStartedAt.Valid {
		sess.QuestionStartedAt = questionStartedAt.Time
	}
	if startedAt.Valid {
		sess.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		sess.EndedAt = endedAt.Time
	}
	return &sess, nil
}
