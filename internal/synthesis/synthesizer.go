// Package synthesis asks a model for parser source code.
package synthesis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/statement-agent/internal/llm"
	"github.com/jonathan/statement-agent/internal/prompts"
	"github.com/jonathan/statement-agent/internal/types"
	"go.uber.org/zap"
)

// MinArtifactLength is the shortest trimmed source accepted as a plausible parser
const MinArtifactLength = 50

// TooShortMessage is the feedback recorded when generated source is empty or implausibly short
const TooShortMessage = "generated parser code is too short"

// Error represents a failure during parser synthesis
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("synthesis error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("synthesis error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Synthesizer produces candidate parser source for a request.
// The returned text is untrusted and may be unusable.
type Synthesizer interface {
	Synthesize(ctx context.Context, req types.GenerationRequest) (string, error)
}

// IsPlausible reports whether source is long enough to be worth executing
func IsPlausible(source string) bool {
	return len(strings.TrimSpace(source)) >= MinArtifactLength
}

// LLMSynthesizer generates parser code with the advanced model tier
type LLMSynthesizer struct {
	client llm.Client
}

// NewLLMSynthesizer creates a synthesizer backed by client
func NewLLMSynthesizer(client llm.Client) *LLMSynthesizer {
	return &LLMSynthesizer{client: client}
}

// Synthesize renders the generation prompt and returns the model's code with fences stripped
func (s *LLMSynthesizer) Synthesize(ctx context.Context, req types.GenerationRequest) (string, error) {
	if s.client == nil {
		return "", &Error{Message: "LLM client is required"}
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", &Error{Message: "failed to build generation prompt", Cause: err}
	}

	zap.L().Debug("requesting parser code",
		zap.String("target", string(req.Target)),
		zap.Int("attempt", req.Attempt),
		zap.Bool("feedback", req.HasFeedback()),
		zap.Int("prompt_chars", len(prompt)),
	)

	text, err := s.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", &Error{Message: "code generation request failed", Cause: err}
	}

	return llm.StripCodeFences(text), nil
}

// BuildPrompt renders the generation prompt. The failure section is present only when
// the request carries feedback.
func BuildPrompt(req types.GenerationRequest) (string, error) {
	feedback := ""
	if req.Feedback != nil {
		var err error
		feedback, err = prompts.Render(prompts.SynthesisFile, prompts.KeyPreviousFailure, map[string]string{
			"Message": *req.Feedback,
		})
		if err != nil {
			return "", err
		}
	}

	return prompts.Render(prompts.SynthesisFile, prompts.KeyParserGeneration, map[string]string{
		"Description": req.Description,
		"Target":      string(req.Target),
		"Attempt":     strconv.Itoa(req.Attempt),
		"MaxAttempts": strconv.Itoa(req.MaxAttempts),
		"Feedback":    feedback,
	})
}
