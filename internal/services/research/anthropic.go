// Package research fetches short live agronomic notes for a crop from an LLM.
package research

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = `You are an agronomist writing for smallholder farmers in India.
Answer in plain text, no markdown, at most four sentences.
Cover current cultivation practice, water and nutrient needs, and one recent
yield or pest-management development. If you are unsure, say so briefly.`

// ErrNoText is returned when the model produced no text block.
var ErrNoText = errors.New("no text content in model response")

// Config for AnthropicResearcher.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// AnthropicResearcher implements the crop advisor's research lookup.
type AnthropicResearcher struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic returns nil when no API key is configured, which disables
// research enrichment.
func NewAnthropic(cfg Config) *AnthropicResearcher {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Single attempt; the caller's deadline bounds the lookup.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicResearcher{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Research asks for a short note on crop and honours ctx's deadline.
func (r *AnthropicResearcher) Research(ctx context.Context, crop string) (string, error) {
	message, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(
				fmt.Sprintf("Modern cultivation of %s: latest trends and advice.", crop))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic research for %s: %w", crop, err)
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("[research] %s: %d chars, tokens in=%d out=%d",
				crop, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return block.Text, nil
		}
	}
	return "", ErrNoText
}
