// Package engine implements the QuizBurst session progression and scoring
// engine: the component that keeps every participant of a live session on
// the same question, accepts concurrent answer submissions without
// double-counting, decides when to advance, and derives the leaderboard.
//
// The engine is a stateless request handler over the shared store. It holds
// no per-session state in process, so any number of replicas can serve the
// same session; the single piece of mutable shared state, the session's
// current-question index, is advanced through the store's compare-and-set
// update and every other mutation is keyed uniquely enough to be safely
// concurrent.
//
// # Synchronization Protocol
//
// There is no push channel. Clients poll two endpoints:
//
//	GET /api/sessions/{id}/status
//	GET /api/sessions/{id}/current-question
//
// and treat a jump in currentQuestionIndex as the signal to re-render and
// isComplete as terminal. Each client runs its own countdown against the
// server-reported time limit and calls next-question when it elapses; the
// compare-and-set guarantees exactly one of those concurrent calls performs
// each transition, and the losers receive the now-current index as a no-op.
//
// When every joined participant has a real (non-sentinel) answer for the
// current question, the status payload raises allAnswered. The flag is
// informative only: advancement still waits for the timer so a fast round
// does not cut short anyone's deliberation time.
package engine
