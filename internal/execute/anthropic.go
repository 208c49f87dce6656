package execute

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider calls the Anthropic messages API. Frequency and
// presence penalties have no equivalent there and are not sent.
type AnthropicProvider struct {
	client *anthropic.Client
	name   string
}

func NewAnthropicProvider(name, apiKey, baseURL string) *AnthropicProvider {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey, opts...),
		name:   name,
	}
}

func (p *AnthropicProvider) Name() string {
	return p.name
}

func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (Completion, error) {
	temperature := float32(req.Temperature)
	msgReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		System:      req.SystemPrompt,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(req.UserPrompt)},
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
	}
	if req.TopP != nil {
		topP := float32(*req.TopP)
		msgReq.TopP = &topP
	}

	resp, err := p.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return Completion{}, fmt.Errorf("%s API error: %w", p.name, err)
	}

	return Completion{
		Content:          resp.GetFirstContentText(),
		Model:            string(resp.Model),
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}, nil
}
