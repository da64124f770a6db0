package app

import (
	"math"
	"sort"

	"whobible-live/internal/domain"
)

const (
	basePoints    = 1000
	maxSpeedBonus = 500
	podiumSize    = 3
)

// ScoreQuestion computes per-player awards for one closed question. Only
// players with a correct answer earn points; everyone else gets a zero award
// so callers can still see who participated.
func ScoreQuestion(q domain.Question, responses map[string]domain.Response, timePerQuestion int) map[string]domain.Award {
	awards := make(map[string]domain.Award, len(responses))
	correctIdx := q.CorrectIndex()

	for playerID, resp := range responses {
		if !resp.Answered() || resp.Answer != correctIdx {
			awards[playerID] = domain.Award{}
			continue
		}
		awards[playerID] = domain.Award{
			Points:  basePoints + speedBonus(resp.TimeTaken, timePerQuestion),
			Correct: true,
		}
	}
	return awards
}

// speedBonus scales linearly with remaining time: a full-speed answer earns
// maxSpeedBonus, an answer at or past the limit earns nothing. Negative
// elapsed times are treated as zero.
func speedBonus(timeTaken float64, timePerQuestion int) int {
	if timePerQuestion <= 0 {
		return 0
	}
	if timeTaken < 0 {
		timeTaken = 0
	}
	remaining := float64(timePerQuestion) - timeTaken
	if remaining < 0 {
		remaining = 0
	}
	return int(math.Floor(remaining / float64(timePerQuestion) * maxSpeedBonus))
}

// Rank orders players by score descending. Ties keep the order of the given
// slice, so callers control tie stability by passing a deterministic order.
func Rank(players []domain.Player) []domain.Standing {
	standings := make([]domain.Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, domain.Standing{
			ID:      p.ID,
			Name:    p.Name,
			Score:   p.Score,
			Correct: p.Correct,
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// Podium splits standings into the top-three presentation and the rest.
func Podium(standings []domain.Standing) (podium, rest []domain.Standing) {
	if len(standings) <= podiumSize {
		return standings, nil
	}
	return standings[:podiumSize], standings[podiumSize:]
}

// Summarize computes the final aggregate once a room finishes.
// questionsPresented is the count of questions actually closed, which can be
// less than the requested number when the host ends early.
func Summarize(players []domain.Player, questionsPresented int) domain.Summary {
	totalCorrect := 0
	for _, p := range players {
		totalCorrect += p.Correct
	}

	accuracy := 0
	if len(players) > 0 && questionsPresented > 0 {
		accuracy = int(math.Round(float64(totalCorrect) / float64(len(players)*questionsPresented) * 100))
	}

	return domain.Summary{
		Players:            len(players),
		QuestionsPresented: questionsPresented,
		Accuracy:           accuracy,
		Standings:          Rank(players),
	}
}
