package quiz

import "errors"

// Error taxonomy shared across the engine and its transport wrappers. All of
// these are recoverable by the caller: re-fetch session status and resume
// polling instead of retrying the failed mutation.
var (
	// ErrNotFound reports a missing session, quiz, question or participant.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState reports an operation attempted from the wrong lifecycle
	// state, such as submitting an answer to an ended session.
	ErrInvalidState = errors.New("invalid session state")

	// ErrInvalidTransition reports a lifecycle transition that is not allowed,
	// such as starting a session that is not waiting.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrNoParticipants reports an attempt to start a session nobody joined.
	ErrNoParticipants = errors.New("session has no participants")

	// ErrUnauthorized reports a host-restricted operation attempted by a
	// caller who does not own the session's quiz.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidQuiz reports quiz or question payloads that fail ingestion
	// validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
