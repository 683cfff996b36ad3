package engine

import (
	"context"
	"math"
	"sort"

	"github.com/AnasTanwar5/quiz-burst/quiz"
)

// Leaderboard aggregates the answer ledger into ranked standings. It is
// computed fresh on every call, never cached, so it is consistent with the
// ledger at read time regardless of session state. Participants without any
// answer still appear with a zero row. Ties on score break by join time,
// then participant id, so rankings are stable across polls.
func (e *Engine) Leaderboard(ctx context.Context, sessionID string) ([]*quiz.Standing, error) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	questions, err := e.store.GetQuestions(ctx, sess.QuizID)
	if err != nil {
		return nil, err
	}
	correctIndex := make(map[string]int, len(questions))
	for _, q := range questions {
		correctIndex[q.ID] = q.CorrectIndex
	}

	participants, err := e.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := e.store.ListAnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byParticipant := make(map[string][]*quiz.Answer, len(participants))
	for _, a := range answers {
		byParticipant[a.ParticipantID] = append(byParticipant[a.ParticipantID], a)
	}

	standings := make([]*quiz.Standing, 0, len(participants))
	order := make(map[string]int, len(participants))
	for i, p := range participants {
		order[p.ID] = i
		st := &quiz.Standing{ParticipantID: p.ID, Name: p.Name}
		for _, a := range byParticipant[p.ID] {
			if a.TimedOut() {
				continue
			}
			st.TotalAnswered++
			st.TotalScore += a.Points
			if ci, ok := correctIndex[a.QuestionID]; ok && a.OptionIndex == ci {
				st.CorrectCount++
			}
		}
		if st.TotalAnswered > 0 {
			st.Accuracy = math.Round(float64(st.CorrectCount) / float64(st.TotalAnswered) * 100)
		}
		standings = append(standings, st)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if order[a.ParticipantID] != order[b.ParticipantID] {
			return order[a.ParticipantID] < order[b.ParticipantID]
		}
		return a.ParticipantID < b.ParticipantID
	})

	return standings, nil
}
