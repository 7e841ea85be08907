package generator

import "strings"

// StructuralScore holds the individual structural compliance checks.
type StructuralScore struct {
	StemLengthOK       bool
	ChoiceCountOK      bool
	ChoicesDistinct    bool
	ExplanationPresent bool
}

// ComputeStructuralScore evaluates structural compliance for a single question.
func ComputeStructuralScore(q GeneratedMCQ) StructuralScore {
	stemLen := len(strings.TrimSpace(q.Stem))

	distinct := true
	seen := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" || seen[key] {
			distinct = false
		}
		seen[key] = true
	}

	return StructuralScore{
		StemLengthOK:       stemLen >= 10 && stemLen <= 400,
		ChoiceCountOK:      len(q.Choices) >= 3 && len(q.Choices) <= 6,
		ChoicesDistinct:    distinct,
		ExplanationPresent: strings.TrimSpace(q.Explanation) != "",
	}
}

// ComputeQualityScore calculates a composite quality score (0.0-1.0).
//
// Formula: verification * 0.60 + structural * 0.40. A nil vr means the
// question was not verified and scores as low confidence.
func ComputeQualityScore(vr *ValidationResult, structural StructuralScore) float64 {
	verificationScore := 0.4
	if vr != nil {
		if !vr.Matches {
			verificationScore = 0
		} else {
			switch vr.Confidence {
			case "high":
				verificationScore = 1.0
			case "medium":
				verificationScore = 0.7
			case "low":
				verificationScore = 0.4
			}
		}
	}

	// 4 checks, each worth 0.25
	structuralScore := 0.0
	if structural.StemLengthOK {
		structuralScore += 0.25
	}
	if structural.ChoiceCountOK {
		structuralScore += 0.25
	}
	if structural.ChoicesDistinct {
		structuralScore += 0.25
	}
	if structural.ExplanationPresent {
		structuralScore += 0.25
	}

	return verificationScore*0.60 + structuralScore*0.40
}

// ClassifyQuality returns "reject" (< 0.50), "flagged" (0.50-0.70) or "passed" (> 0.70).
func ClassifyQuality(score float64) string {
	if score < 0.50 {
		return "reject"
	}
	if score <= 0.70 {
		return "flagged"
	}
	return "passed"
}
