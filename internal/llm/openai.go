// Package llm talks to an OpenAI compatible chat completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finsight/internal/insights"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = openai.GPT3Dot5Turbo

	// placeholderKey ships in example env files and is treated as unset.
	placeholderKey = "sk-your-openai-api-key-here"
)

var ErrNoChoices = errors.New("completion returned no choices")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Configured reports whether cfg carries a usable API key.
func (c Config) Configured() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != placeholderKey
}

type Client struct {
	api   *openai.Client
	model string
}

var _ insights.TextGenerator = (*Client)(nil)

// New returns nil when no usable key is configured, which callers pass on to
// insights.NewGenerator as "no client".
func New(cfg Config) *Client {
	if !cfg.Configured() {
		return nil
	}
	oc := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: model}
}

// Generator converts a possibly nil *Client into an interface value that is
// nil when the client is, so the generator sees "no client" rather than a
// typed nil.
func (c *Client) Generator() insights.TextGenerator {
	if c == nil {
		return nil
	}
	return c
}

func (c *Client) Generate(ctx context.Context, p insights.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
