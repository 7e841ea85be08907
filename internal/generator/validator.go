package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// Validator re-asks a model to answer each generated question blind. A
// question whose marked answer disagrees with the blind answer is rejected.
type Validator struct {
	llm   LLMClient
	model string
}

func NewValidator() *Validator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath, os.Getenv("ANTHROPIC_VALIDATION_MODEL"))
		model = "claude-cli"
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = nil // Validation is skipped in mock mode
	} else {
		model = os.Getenv("ANTHROPIC_VALIDATION_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
	}

	return &Validator{llm: llm, model: model}
}

func NewValidatorWithClient(llm LLMClient, model string) *Validator {
	return &Validator{llm: llm, model: model}
}

func (v *Validator) ModelName() string {
	return v.model
}

// Enabled reports whether a backend is configured.
func (v *Validator) Enabled() bool {
	return v.llm != nil
}

type ValidationResult struct {
	QuestionIndex   int    `json:"question_index"`
	SelectedIdx     int    `json:"selected_idx"`
	MarkedIdx       int    `json:"marked_idx"`
	Matches         bool   `json:"matches"`
	Confidence      string `json:"confidence"`
	Reasoning       string `json:"reasoning"`
	PotentialIssues string `json:"potential_issues"`
	PromptTokens    int    `json:"prompt_tokens"`
	OutputTokens    int    `json:"output_tokens"`
}

type BatchValidationResult struct {
	TotalQuestions    int                `json:"total_questions"`
	PassedCount       int                `json:"passed_count"`
	FlaggedCount      int                `json:"flagged_count"`
	RejectedCount     int                `json:"rejected_count"`
	Results           []ValidationResult `json:"results"`
	TotalPromptTokens int                `json:"total_prompt_tokens"`
	TotalOutputTokens int                `json:"total_output_tokens"`
}

type verificationResponse struct {
	SelectedAnswer  string `json:"selected_answer"`
	Confidence      string `json:"confidence"`
	Reasoning       string `json:"reasoning"`
	PotentialIssues string `json:"potential_issues"`
}

func (v *Validator) ValidateBatch(ctx context.Context, batch *GeneratedBatch) (*BatchValidationResult, error) {
	if v.llm == nil {
		return nil, fmt.Errorf("validator not initialized (mock mode)")
	}

	result := &BatchValidationResult{
		TotalQuestions: len(batch.Questions),
		Results:        make([]ValidationResult, 0, len(batch.Questions)),
	}

	for i, q := range batch.Questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vr, err := v.ValidateQuestion(ctx, q)
		if err != nil {
			log.Printf("[generator] WARN: validation failed for question %d: %v, passing as unvalidated", i+1, err)
			vr = &ValidationResult{
				SelectedIdx: q.AnswerIdx,
				Confidence:  "low",
				Reasoning:   fmt.Sprintf("validation error: %v", err),
			}
		}
		vr.QuestionIndex = i
		vr.MarkedIdx = q.AnswerIdx
		vr.Matches = vr.SelectedIdx == q.AnswerIdx

		switch {
		case !vr.Matches:
			result.RejectedCount++
		case vr.Confidence == "high":
			result.PassedCount++
		default:
			result.FlaggedCount++
		}

		result.TotalPromptTokens += vr.PromptTokens
		result.TotalOutputTokens += vr.OutputTokens
		result.Results = append(result.Results, *vr)
	}

	return result, nil
}

func (v *Validator) ValidateQuestion(ctx context.Context, q GeneratedMCQ) (*ValidationResult, error) {
	resp, err := v.llm.Generate(ctx, verificationSystemPrompt, buildVerificationPrompt(q))
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	cleaned := stripCodeFences(resp.Content)
	var vResp verificationResponse
	if err := json.Unmarshal([]byte(cleaned), &vResp); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}

	idx, err := letterIndex(vResp.SelectedAnswer, len(q.Choices))
	if err != nil {
		return nil, err
	}

	return &ValidationResult{
		SelectedIdx:     idx,
		Confidence:      vResp.Confidence,
		Reasoning:       vResp.Reasoning,
		PotentialIssues: vResp.PotentialIssues,
		PromptTokens:    resp.PromptTokens,
		OutputTokens:    resp.OutputTokens,
	}, nil
}

const verificationSystemPrompt = `You are a senior police training instructor. You are answering a revision question to check that its marked answer is correct. Think through each choice before answering. Respond with JSON only.`

func choiceLetter(i int) string {
	return string(rune('A' + i))
}

// letterIndex maps "B" or "(b)" to 1.
func letterIndex(s string, n int) (int, error) {
	s = strings.Trim(strings.ToUpper(strings.TrimSpace(s)), "()")
	if len(s) != 1 || s[0] < 'A' || int(s[0]-'A') >= n {
		return 0, fmt.Errorf("selected_answer %q is not one of %d choices", s, n)
	}
	return int(s[0] - 'A'), nil
}

func buildVerificationPrompt(q GeneratedMCQ) string {
	var sb strings.Builder

	sb.WriteString("QUESTION:\n")
	sb.WriteString(q.Stem)
	sb.WriteString("\n\nCHOICES:\n")

	for i, c := range q.Choices {
		sb.WriteString(fmt.Sprintf("(%s) %s\n", choiceLetter(i), c))
	}

	sb.WriteString(`
Select the BEST answer. Respond with JSON only:
{
  "selected_answer": "B",
  "confidence": "high",
  "reasoning": "Why this answer is correct and each other choice is wrong...",
  "potential_issues": "Any ambiguity in how the question is written..."
}

confidence must be one of: "high", "medium", "low"`)

	return sb.String()
}
