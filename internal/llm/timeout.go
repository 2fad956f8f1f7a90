package llm

import (
	"context"
	"time"
)

// TimeoutClient bounds every request to an underlying Client
type TimeoutClient struct {
	Client
	timeout time.Duration
}

// NewTimeoutClient wraps client. A non-positive timeout returns client unchanged.
func NewTimeoutClient(client Client, timeout time.Duration) Client {
	if timeout <= 0 {
		return client
	}
	return &TimeoutClient{Client: client, timeout: timeout}
}

// GenerateContent applies the timeout and delegates
func (c *TimeoutClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, attachments ...Attachment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.Client.GenerateContent(ctx, prompt, tier, attachments...)
}
