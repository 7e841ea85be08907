package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedClient returns one canned reply per call, in order.
type scriptedClient struct {
	replies []string
	calls   int
}

func (c *scriptedClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*LLMResponse, error) {
	if c.calls >= len(c.replies) {
		return nil, errors.New("no more replies")
	}
	r := c.replies[c.calls]
	c.calls++
	return &LLMResponse{Content: r, PromptTokens: 10, OutputTokens: 5}, nil
}

func TestValidateBatch(t *testing.T) {
	batch := validBatch(4) // answers 0,1,2,3
	llm := &scriptedClient{replies: []string{
		`{"selected_answer": "A", "confidence": "high"}`,
		"```json\n{\"selected_answer\": \"(b)\", \"confidence\": \"medium\"}\n```",
		`{"selected_answer": "A", "confidence": "high"}`,
		`not json`,
	}}
	v := NewValidatorWithClient(llm, "scripted")

	res, err := v.ValidateBatch(t.Context(), &batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.PassedCount != 1 || res.FlaggedCount != 2 || res.RejectedCount != 1 {
		t.Errorf("passed/flagged/rejected = %d/%d/%d, want 1/2/1", res.PassedCount, res.FlaggedCount, res.RejectedCount)
	}
	if res.Results[2].Matches || res.Results[2].SelectedIdx != 0 || res.Results[2].MarkedIdx != 2 {
		t.Errorf("question 3 should be a mismatch: %+v", res.Results[2])
	}
	// An unparseable reply passes as unvalidated with low confidence.
	if !res.Results[3].Matches || res.Results[3].Confidence != "low" {
		t.Errorf("question 4 should be unvalidated: %+v", res.Results[3])
	}
	if res.TotalPromptTokens != 30 {
		t.Errorf("prompt tokens = %d", res.TotalPromptTokens)
	}
}

func TestValidateBatch_MockMode(t *testing.T) {
	v := NewValidatorWithClient(nil, "mock")
	if v.Enabled() {
		t.Error("nil client should be disabled")
	}
	batch := validBatch(1)
	if _, err := v.ValidateBatch(t.Context(), &batch); err == nil {
		t.Error("expected error in mock mode")
	}
}

func TestLetterIndex(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"A", 0, false},
		{" c ", 2, false},
		{"(D)", 3, false},
		{"E", 0, true},
		{"AB", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := letterIndex(tt.in, 4)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("letterIndex(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestBuildVerificationPrompt_HidesAnswer(t *testing.T) {
	q := validBatch(1).Questions[0]
	p := buildVerificationPrompt(q)
	if !strings.Contains(p, "(A) Ignore it") || !strings.Contains(p, "(D) Refer to another unit") {
		t.Errorf("choices not lettered: %s", p)
	}
	if strings.Contains(p, q.Explanation) {
		t.Error("prompt must not include the explanation")
	}
}
