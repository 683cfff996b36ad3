package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	sc := DefaultScoring()
	limit := 20 * time.Second

	tests := []struct {
		name      string
		correct   bool
		remaining time.Duration
		want      int
	}{
		{"instant answer gets full bonus", true, 20 * time.Second, 100},
		{"half the clock left", true, 10 * time.Second, 65},
		{"buzzer beater gets base points", true, 0, 30},
		{"three quarters left", true, 15 * time.Second, 83}, // 30 + 52.5 rounds up
		{"incorrect scores zero regardless of speed", false, 20 * time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sc.Score(tt.correct, tt.remaining, limit))
		})
	}
}

func TestScoreClamping(t *testing.T) {
	sc := DefaultScoring()
	limit := 20 * time.Second

	// Clock skew can report remaining outside [0, limit]; the score clamps.
	assert.Equal(t, 100, sc.Score(true, 25*time.Second, limit))
	assert.Equal(t, 30, sc.Score(true, -3*time.Second, limit))

	// A zero limit falls back to the default rather than dividing by zero.
	assert.Equal(t, 65, sc.Score(true, 10*time.Second, 0))
}

func TestRemaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limit := 20 * time.Second

	assert.Equal(t, 20*time.Second, Remaining(start, start, limit))
	assert.Equal(t, 12*time.Second, Remaining(start, start.Add(8*time.Second), limit))
	assert.Equal(t, time.Duration(0), Remaining(start, start.Add(time.Minute), limit))
	// A clock stepping backwards must not report more than the full limit.
	assert.Equal(t, limit, Remaining(start, start.Add(-time.Second), limit))
}
