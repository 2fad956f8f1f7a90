package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedClient delays calls to an underlying Client so that at most
// requestsPerMinute calls start per minute. It is safe for concurrent use.
type RateLimitedClient struct {
	Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps client. A non-positive requestsPerMinute disables limiting.
func NewRateLimitedClient(client Client, requestsPerMinute int) Client {
	if requestsPerMinute <= 0 {
		return client
	}
	limit := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	return &RateLimitedClient{
		Client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// GenerateContent waits for a token and then delegates
func (c *RateLimitedClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, attachments ...Attachment) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}
	return c.Client.GenerateContent(ctx, prompt, tier, attachments...)
}
