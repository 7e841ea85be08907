// Package grading scores submitted answers. Both graders are pure functions.
package grading

import (
	"fmt"

	"github.com/spf-coach/studycoach/internal/models"
)

// GradeMCQ compares the selected choice against the answer index. There is
// no partial credit.
func GradeMCQ(item models.MCQ, selected int) (correct bool, correctIdx int, err error) {
	if selected < 0 || selected >= len(item.Choices) {
		return false, item.AnswerIdx, fmt.Errorf("%w: selected answer %d out of range [0, %d)",
			models.ErrInvalidInput, selected, len(item.Choices))
	}
	return selected == item.AnswerIdx, item.AnswerIdx, nil
}
