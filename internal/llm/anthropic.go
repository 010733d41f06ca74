package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicClient struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

func newAnthropic(opts Options) *anthropicClient {
	return &anthropicClient{
		client:      anthropic.NewClient(option.WithAPIKey(opts.APIKey)),
		model:       anthropic.Model(opts.Model),
		maxTokens:   int64(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

func (c *anthropicClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	// System messages go in the top-level system parameter; the messages
	// array carries only user/assistant turns.
	var system string
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleUser, RoleAssistant:
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRole(m.Role),
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
			})
		default:
			return Response{}, fmt.Errorf("unsupported role %q", m.Role)
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system, Type: "text"}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("messages.new: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return Response{}, errors.New("messages.new: empty response")
	}

	var text string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text += resp.Content[i].AsText().Text
		}
	}
	return Response{
		Content:          text,
		Model:            string(c.model),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}
