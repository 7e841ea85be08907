package grading

import (
	"fmt"
	"strings"

	"github.com/spf-coach/studycoach/internal/models"
)

// SAQResult is the outcome of keyword grading.
type SAQResult struct {
	Score    float64
	Matched  []string
	Missing  []string
	Feedback string
}

// GradeSAQ scores a free-text answer by case-insensitive substring presence
// of each keyword: score = matched / total.
//
// This is a weak heuristic: it rewards keyword stuffing and matches inside
// longer words ("intent" inside "unintentional"). Users see these scores, so
// changes to the matching rules change their results.
//
// Keywords are trimmed and de-duplicated case-insensitively before scoring,
// so a repeated keyword counts once in the total. An empty keyword set is a
// caller error.
func GradeSAQ(answer string, keywords []string) (SAQResult, error) {
	normalized := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, kw)
	}
	if len(normalized) == 0 {
		return SAQResult{}, fmt.Errorf("%w: no keywords to grade against", models.ErrInvalidInput)
	}

	text := strings.ToLower(answer)
	res := SAQResult{Matched: []string{}, Missing: []string{}}
	for _, kw := range normalized {
		if strings.Contains(text, strings.ToLower(kw)) {
			res.Matched = append(res.Matched, kw)
		} else {
			res.Missing = append(res.Missing, kw)
		}
	}

	res.Score = float64(len(res.Matched)) / float64(len(normalized))
	res.Feedback = fmt.Sprintf("Matched %d/%d keywords", len(res.Matched), len(normalized))
	return res, nil
}
