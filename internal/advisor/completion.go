package advisor

import (
	"context"

	"github.com/complyeu/aiact-cli/pkg/anthropic"
)

// AnthropicCompleter adapts the Anthropic messages client to the Completer
// contract. System prompts are cached server-side since the same prompt is
// reused across every interview round.
type AnthropicCompleter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompleter wraps an Anthropic client for a fixed model.
func NewAnthropicCompleter(client anthropic.Client, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model}
}

func (a *AnthropicCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int64) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt}},
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	return anthropic.ExtractText(resp), nil
}
