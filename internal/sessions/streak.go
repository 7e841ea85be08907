package sessions

import (
	"sort"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

// streakMilestones are the streak lengths worth celebrating on completion.
var streakMilestones = map[int]bool{3: true, 7: true, 14: true, 30: true, 60: true, 100: true, 365: true}

func IsMilestone(streak int) bool {
	return streakMilestones[streak]
}

// ComputeStreaks counts runs of consecutive UTC days with activity. The
// current streak is still alive if the last active day is today or
// yesterday; a longer gap resets it to zero.
func ComputeStreaks(activity []time.Time, now time.Time) (current, longest int) {
	if len(activity) == 0 {
		return 0, 0
	}

	seen := make(map[time.Time]bool)
	var days []time.Time
	for _, t := range activity {
		d := t.UTC().Truncate(24 * time.Hour)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := now.UTC().Truncate(24 * time.Hour)
	last := days[len(days)-1]
	daysSinceLast := int(today.Sub(last).Hours() / 24)
	switch {
	case daysSinceLast <= 1:
		current = run
	default:
		current = 0
	}
	return current, longest
}

// ScoreSession summarizes a finished drill. Correct ids outside the session's
// question list are ignored.
func ScoreSession(req models.CompleteSessionRequest) models.SessionScore {
	asked := make(map[int64]bool, len(req.QuestionIDs))
	for _, id := range req.QuestionIDs {
		asked[id] = true
	}
	credited := make(map[int64]bool, len(req.CorrectIDs))
	for _, id := range req.CorrectIDs {
		if asked[id] {
			credited[id] = true
		}
	}

	score := models.SessionScore{Total: len(asked), Correct: len(credited)}
	if score.Total > 0 {
		score.Accuracy = float64(score.Correct) / float64(score.Total)
		score.Perfect = score.Correct == score.Total
	}
	return score
}
