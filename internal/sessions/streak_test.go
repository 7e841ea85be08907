package sessions

import (
	"testing"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
}

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name        string
		activity    []time.Time
		now         time.Time
		wantCurrent int
		wantLongest int
	}{
		{"no activity", nil, day(10, 12), 0, 0},
		{"single today", []time.Time{day(10, 8)}, day(10, 20), 1, 1},
		{"same day twice", []time.Time{day(10, 8), day(10, 9)}, day(10, 20), 1, 1},
		{"three consecutive ending today", []time.Time{day(8, 1), day(9, 1), day(10, 1)}, day(10, 23), 3, 3},
		{"ending yesterday still alive", []time.Time{day(8, 1), day(9, 1)}, day(10, 23), 2, 2},
		{"gap resets current", []time.Time{day(1, 1), day(2, 1), day(3, 1), day(7, 1)}, day(7, 5), 1, 3},
		{"stale streak", []time.Time{day(1, 1), day(2, 1)}, day(10, 5), 0, 2},
		{"unordered input", []time.Time{day(10, 1), day(8, 1), day(9, 1)}, day(10, 2), 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, long := ComputeStreaks(tt.activity, tt.now)
			if cur != tt.wantCurrent || long != tt.wantLongest {
				t.Errorf("ComputeStreaks = (%d, %d), want (%d, %d)", cur, long, tt.wantCurrent, tt.wantLongest)
			}
		})
	}
}

func TestScoreSession(t *testing.T) {
	tests := []struct {
		name string
		req  models.CompleteSessionRequest
		want models.SessionScore
	}{
		{
			name: "perfect",
			req:  models.CompleteSessionRequest{QuestionIDs: []int64{1, 2}, CorrectIDs: []int64{2, 1}},
			want: models.SessionScore{Total: 2, Correct: 2, Accuracy: 1, Perfect: true},
		},
		{
			name: "partial",
			req:  models.CompleteSessionRequest{QuestionIDs: []int64{1, 2, 3, 4}, CorrectIDs: []int64{3}},
			want: models.SessionScore{Total: 4, Correct: 1, Accuracy: 0.25},
		},
		{
			name: "foreign and repeated correct ids ignored",
			req:  models.CompleteSessionRequest{QuestionIDs: []int64{1, 2}, CorrectIDs: []int64{1, 1, 9}},
			want: models.SessionScore{Total: 2, Correct: 1, Accuracy: 0.5},
		},
		{
			name: "empty",
			req:  models.CompleteSessionRequest{},
			want: models.SessionScore{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreSession(tt.req); got != tt.want {
				t.Errorf("ScoreSession = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsMilestone(t *testing.T) {
	for _, n := range []int{3, 7, 30} {
		if !IsMilestone(n) {
			t.Errorf("IsMilestone(%d) = false", n)
		}
	}
	for _, n := range []int{0, 1, 4, 8} {
		if IsMilestone(n) {
			t.Errorf("IsMilestone(%d) = true", n)
		}
	}
}
