package adapter

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when a reviewer config does not name one.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// Anthropic is the network-calling reviewer backend using the Anthropic API.
type Anthropic struct {
	id    string
	api   *anthropic.Client
	model anthropic.Model
}

// NewAnthropic creates an Anthropic-backed reviewer for the given identity.
func NewAnthropic(id string, cfg Config) *Anthropic {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{
		id:    id,
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Name returns the reviewer identity this backend serves.
func (a *Anthropic) Name() string { return a.id }

// Review sends the chapter excerpt to the model and returns its free-text
// response for parsing.
func (a *Anthropic) Review(ctx context.Context, req Request) (Response, error) {
	systemPrompt, userPrompt := buildPrompt(req)

	msg, err := a.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return Response{}, fmt.Errorf("no text content in API response")
	}

	return Response{Text: text}, nil
}
