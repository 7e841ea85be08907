package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf-coach/studycoach/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

type GeneratedBatch struct {
	Questions []GeneratedMCQ `json:"questions"`
}

// GeneratedMCQ uses the same field names as the seed file, so accepted
// questions can be appended to it unchanged.
type GeneratedMCQ struct {
	Stem        string   `json:"stem"`
	Choices     []string `json:"choices"`
	AnswerIdx   int      `json:"answer_idx"`
	Explanation string   `json:"explanation"`
	TopicName   string   `json:"topic_name"`
	SourceRef   string   `json:"source_ref"`
}

// ToMCQ converts to the domain type and checks the answer index invariant.
func (q GeneratedMCQ) ToMCQ() (models.MCQ, error) {
	m := models.MCQ{
		Stem:        q.Stem,
		Choices:     q.Choices,
		AnswerIdx:   q.AnswerIdx,
		Explanation: q.Explanation,
		TopicName:   q.TopicName,
		SourceRef:   q.SourceRef,
	}
	if err := m.Validate(); err != nil {
		return models.MCQ{}, err
	}
	return m, nil
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ── JSON Schema ─────────────────────────────────────────

const mcqItemSchema = `{
  "type": "object",
  "required": ["stem", "choices", "answer_idx", "explanation"],
  "properties": {
    "stem":        {"type": "string", "minLength": 10},
    "choices":     {"type": "array", "minItems": 3, "maxItems": 6, "items": {"type": "string", "minLength": 1}},
    "answer_idx":  {"type": "integer", "minimum": 0},
    "explanation": {"type": "string", "minLength": 1},
    "topic_name":  {"type": "string"},
    "source_ref":  {"type": "string"}
  }
}`

var (
	batchSchema = mustSchema(fmt.Sprintf(`{
  "type": "object",
  "required": ["questions"],
  "properties": {"questions": {"type": "array", "minItems": 1, "items": %s}}
}`, mcqItemSchema))

	seedFileSchema = mustSchema(fmt.Sprintf(`{"type": "array", "items": %s}`, mcqItemSchema))
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("generator: bad schema: %v", err))
	}
	return s
}

func checkSchema(schema *gojsonschema.Schema, doc string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return &ValidationError{Errors: errs}
}

// ── Parsing ─────────────────────────────────────────────

func ParseResponse(responseBody string) (*GeneratedBatch, error) {
	cleaned := stripCodeFences(responseBody)

	if err := checkSchema(batchSchema, cleaned); err != nil {
		return nil, err
	}

	var batch GeneratedBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := validateBatch(&batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

// ParseSeedFile reads a seed file body: a JSON array of questions.
func ParseSeedFile(data []byte) ([]GeneratedMCQ, error) {
	if err := checkSchema(seedFileSchema, string(data)); err != nil {
		return nil, err
	}
	var qs []GeneratedMCQ
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if len(qs) == 0 {
		return qs, nil
	}
	if err := validateBatch(&GeneratedBatch{Questions: qs}); err != nil {
		return nil, err
	}
	return qs, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// validateBatch checks what the schema cannot express.
func validateBatch(batch *GeneratedBatch) error {
	var errs []string

	if len(batch.Questions) == 0 {
		return &ValidationError{Errors: []string{"no questions in batch"}}
	}

	answerCounts := make(map[int]int)

	for i, q := range batch.Questions {
		qNum := i + 1

		if q.AnswerIdx < 0 || q.AnswerIdx >= len(q.Choices) {
			errs = append(errs, fmt.Sprintf("question %d: answer_idx %d out of range [0, %d)", qNum, q.AnswerIdx, len(q.Choices)))
		}

		seen := make(map[string]bool, len(q.Choices))
		for j, c := range q.Choices {
			key := strings.ToLower(strings.TrimSpace(c))
			if key == "" {
				errs = append(errs, fmt.Sprintf("question %d: choice %d is blank", qNum, j+1))
				continue
			}
			if seen[key] {
				errs = append(errs, fmt.Sprintf("question %d: duplicate choice %q", qNum, c))
			}
			seen[key] = true
		}

		if strings.TrimSpace(q.Stem) == "" {
			errs = append(errs, fmt.Sprintf("question %d: empty stem", qNum))
		}
		if strings.TrimSpace(q.Explanation) == "" {
			errs = append(errs, fmt.Sprintf("question %d: empty explanation", qNum))
		}

		answerCounts[q.AnswerIdx]++
	}

	// Clustered answers are a warning, not a rejection.
	for idx, count := range answerCounts {
		if len(batch.Questions) >= 4 && count*2 > len(batch.Questions) {
			log.Printf("[generator] WARN: answer_idx %d is correct for %d of %d questions", idx, count, len(batch.Questions))
		}
	}

	checkStemDiversity(batch.Questions)

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// checkStemDiversity warns if any two stems share >60% keyword overlap.
func checkStemDiversity(questions []GeneratedMCQ) {
	if len(questions) < 2 {
		return
	}

	tokenSets := make([]map[string]bool, len(questions))
	for i, q := range questions {
		tokenSets[i] = tokenize(q.Stem)
	}

	for i := 0; i < len(questions); i++ {
		for j := i + 1; j < len(questions); j++ {
			overlap := jaccardSimilarity(tokenSets[i], tokenSets[j])
			if overlap > 0.60 {
				log.Printf("[generator] WARN: questions %d and %d have %.0f%% stem overlap", i+1, j+1, overlap*100)
			}
		}
	}
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:?!()\"'")
		// Skip articles and short prepositions
		if len(word) > 3 {
			tokens[word] = true
		}
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
