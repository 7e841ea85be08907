package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLIClient shells out to the claude CLI for local generation without an API key.
type CLIClient struct {
	cliPath string
	model   string
}

// NewCLIClient builds a client; model may be empty to use the CLI default.
func NewCLIClient(cliPath, model string) *CLIClient {
	return &CLIClient{cliPath: cliPath, model: model}
}

func (c *CLIClient) args(systemPrompt string) []string {
	args := []string{
		"--print",
		"--output-format", "text",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return args
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cmd := exec.CommandContext(ctx, c.cliPath, c.args(systemPrompt)...)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("claude CLI error: %w\nstderr: %s", err, stderr.String())
	}

	responseText := strings.TrimSpace(stdout.String())
	if responseText == "" {
		return nil, fmt.Errorf("claude CLI returned empty response")
	}

	return &LLMResponse{Content: responseText}, nil
}
