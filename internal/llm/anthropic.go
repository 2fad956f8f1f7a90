package llm

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// AnthropicClient implements Client using the official anthropic-sdk-go
type AnthropicClient struct {
	client sdk.Client
	config *Config
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(config *Config, apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &AnthropicClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		config: config,
	}, nil
}

// GenerateContent generates text content using the specified model tier.
// Attachments are not forwarded; callers should check SupportsAttachments.
func (c *AnthropicClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, attachments ...Attachment) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}
	if len(attachments) > 0 {
		zap.L().Debug("anthropic client ignoring attachments", zap.Int("count", len(attachments)))
	}

	maxTokens := c.config.Sampling.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultSampling.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(modelName),
		MaxTokens:   maxTokens,
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
		Temperature: sdk.Float(float64(c.config.Sampling.Temperature)),
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// SupportsAttachments reports that documents are not forwarded by this client
func (c *AnthropicClient) SupportsAttachments() bool {
	return false
}

// GetModel returns the model name for a tier
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the SDK client holds no resources
func (c *AnthropicClient) Close() error {
	return nil
}
