package quiz

import (
	"math"
	"time"
)

// Scoring holds the constants of the time-bonus formula. The same constants
// drive the client-visible countdown, so a score is fully determined by
// correctness and the time remaining at submission.
type Scoring struct {
	BasePoints int
	BonusRange int
}

// DefaultScoring returns the scoring constants used by QuizBurst sessions.
func DefaultScoring() Scoring {
	return Scoring{BasePoints: DefaultBasePoints, BonusRange: DefaultBonusRange}
}

// Score computes the points for an answer. remaining is the time left on the
// question clock when the answer arrived, clamped to [0, limit]; an incorrect
// answer always scores zero.
func (sc Scoring) Score(correct bool, remaining, limit time.Duration) int {
	if !correct {
		return 0
	}
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > limit {
		remaining = limit
	}
	bonus := remaining.Seconds() / limit.Seconds() * float64(sc.BonusRange)
	return int(math.Round(float64(sc.BasePoints) + bonus))
}

// Remaining derives the time left on a question from the server-stamped start
// time, never from client input.
func Remaining(questionStartedAt, now time.Time, limit time.Duration) time.Duration {
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	r := limit - now.Sub(questionStartedAt)
	if r < 0 {
		return 0
	}
	if r > limit {
		return limit
	}
	return r
}
