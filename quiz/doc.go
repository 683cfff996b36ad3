// Package quiz defines the QuizBurst domain model and the pure logic that
// operates on it: quizzes and their ordered questions, live sessions with a
// short join code, participants, and the answer records that make up the
// per-session ledger.
//
// # Session Lifecycle
//
// A session moves through three states:
//
//	waiting -> active -> ended
//
// It is created in waiting, the host starts it once at least one participant
// has joined, and it ends when the current-question index passes the last
// question, when the host ends it explicitly, or when administrative cleanup
// reaps it after the quiz expiry. There is no transition out of ended.
//
// The zero-based current-question index is the sole coordination point for
// synchronization: it only ever increases, one step at a time, and only while
// the session is active. Clients polling session status converge on the same
// index within one polling interval.
//
// # Scoring
//
// Points are a deterministic function of correctness and the time remaining
// when the answer arrived, computed from a server-trusted clock:
//
//	points = round(basePoints + remaining/limit * bonusRange)
//
// for a correct answer, zero otherwise. The awarded value is fixed at
// submission time and never recomputed.
package quiz
