package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls int
}

func (c *countingClient) GenerateContent(_ context.Context, prompt string, _ ModelTier, _ ...Attachment) (string, error) {
	c.calls++
	return "echo: " + prompt, nil
}

func (c *countingClient) SupportsAttachments() bool   { return true }
func (c *countingClient) GetModel(_ ModelTier) string { return "test-model" }
func (c *countingClient) Close() error                { return nil }

func TestNewRateLimitedClient_Disabled(t *testing.T) {
	inner := &countingClient{}
	client := NewRateLimitedClient(inner, 0)
	assert.Same(t, inner, client)
}

func TestRateLimitedClient_Delegates(t *testing.T) {
	inner := &countingClient{}
	client := NewRateLimitedClient(inner, 600)

	out, err := client.GenerateContent(context.Background(), "hello", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)
	assert.Equal(t, 1, inner.calls)
	assert.True(t, client.SupportsAttachments())
	assert.Equal(t, "test-model", client.GetModel(TierLite))
}

func TestRateLimitedClient_RespectsContext(t *testing.T) {
	inner := &countingClient{}
	client := NewRateLimitedClient(inner, 1)

	_, err := client.GenerateContent(context.Background(), "first", TierLite)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.GenerateContent(ctx, "second", TierLite)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

type blockingClient struct {
	countingClient
}

func (c *blockingClient) GenerateContent(ctx context.Context, _ string, _ ModelTier, _ ...Attachment) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestNewTimeoutClient(t *testing.T) {
	inner := &countingClient{}
	assert.Same(t, inner, NewTimeoutClient(inner, 0))

	client := NewTimeoutClient(inner, time.Second)
	out, err := client.GenerateContent(context.Background(), "hi", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
}

func TestTimeoutClient_Expires(t *testing.T) {
	client := NewTimeoutClient(&blockingClient{}, 20*time.Millisecond)

	_, err := client.GenerateContent(context.Background(), "slow", TierAdvanced)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
