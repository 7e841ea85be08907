package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// LLMClient is the interface both generator implementations satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Generator wraps an LLMClient and turns source material into MCQ batches.
type Generator struct {
	llm   LLMClient
	model string
}

// NewGenerator picks a backend from the environment: the claude CLI when
// USE_CLI_GENERATOR=true, canned output when MOCK_GENERATOR=true, otherwise
// the Anthropic API with ANTHROPIC_MODEL.
func NewGenerator() *Generator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath, os.Getenv("ANTHROPIC_MODEL"))
		model = "claude-cli"
		log.Println("[generator] using claude CLI")
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("[generator] using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
		log.Println("[generator] using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

// NewGeneratorWithClient is used by tests and callers that manage their own client.
func NewGeneratorWithClient(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// GenerateMCQBatch asks for count questions on topic, grounded in sourceText
// when it is non-empty.
func (g *Generator) GenerateMCQBatch(ctx context.Context, topic string, count int, sourceText string) (*GeneratedBatch, *LLMResponse, error) {
	if count <= 0 {
		return nil, nil, fmt.Errorf("generate mcq batch: count must be positive, got %d", count)
	}

	resp, err := g.llm.Generate(ctx, MCQSystemPrompt(), BuildMCQUserPrompt(topic, count, sourceText))
	if err != nil {
		return nil, nil, fmt.Errorf("generate mcq batch: %w", err)
	}

	batch, err := ParseResponse(resp.Content)
	if err != nil {
		return nil, resp, fmt.Errorf("parse mcq response: %w", err)
	}

	for i := range batch.Questions {
		if batch.Questions[i].TopicName == "" {
			batch.Questions[i].TopicName = topic
		}
	}

	return batch, resp, nil
}

// ── APIClient (Anthropic SDK) ─────────────────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[generator] retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(sleepDuration):
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("[generator] Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient (local development) ────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var (
	mockCountRe = regexp.MustCompile(`Generate (\d+) `)
	mockTopicRe = regexp.MustCompile(`TOPIC: (.+)`)
)

// Generate reads the count and topic back out of the user prompt so the
// canned batch has the requested shape.
func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	count := 3
	if match := mockCountRe.FindStringSubmatch(userPrompt); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			count = n
		}
	}
	topic := "General"
	if match := mockTopicRe.FindStringSubmatch(userPrompt); match != nil {
		topic = match[1]
	}

	data, err := json.Marshal(buildMockBatch(topic, count))
	if err != nil {
		return nil, err
	}
	return &LLMResponse{
		Content:      string(data),
		PromptTokens: 800,
		OutputTokens: 400 * count,
	}, nil
}

var mockSubjects = []string{
	"body-worn camera activation", "incident report timing", "SALUTE reporting",
	"use of force escalation", "evidence handover", "patrol log entries",
}

func buildMockBatch(topic string, count int) GeneratedBatch {
	batch := GeneratedBatch{Questions: make([]GeneratedMCQ, count)}
	for i := 0; i < count; i++ {
		subject := mockSubjects[i%len(mockSubjects)]
		answer := i % 4
		choices := make([]string, 4)
		for j := range choices {
			if j == answer {
				choices[j] = fmt.Sprintf("[Mock] Follow the %s procedure for case %d", subject, i+1)
			} else {
				choices[j] = fmt.Sprintf("[Mock] Distractor %d about %s for case %d", j+1, subject, i+1)
			}
		}
		batch.Questions[i] = GeneratedMCQ{
			Stem:        fmt.Sprintf("[Mock] Case %d: what should an officer do regarding %s?", i+1, subject),
			Choices:     choices,
			AnswerIdx:   answer,
			Explanation: fmt.Sprintf("[Mock] The %s procedure applies in case %d.", subject, i+1),
			TopicName:   topic,
			SourceRef:   "mock",
		}
	}
	return batch
}
