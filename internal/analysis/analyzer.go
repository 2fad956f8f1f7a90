// Package analysis produces the structural description of a statement document.
package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonathan/statement-agent/internal/ingestion"
	"github.com/jonathan/statement-agent/internal/llm"
	"github.com/jonathan/statement-agent/internal/prompts"
	"go.uber.org/zap"
)

// MaxExcerptChars bounds the text excerpt included in the analysis prompt
const MaxExcerptChars = 20000

// Error represents a failure during structure analysis
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("analysis error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Analyzer describes the layout of a document in free text
type Analyzer interface {
	Analyze(ctx context.Context, documentPath string) (string, error)
}

// TextExtractor produces a layout-preserving text rendition of a PDF
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// LLMAnalyzer asks a model to describe the statement's columns and formatting
type LLMAnalyzer struct {
	client    llm.Client
	extractor TextExtractor
}

// NewLLMAnalyzer creates an analyzer. extractor may be nil when no text extraction is available.
func NewLLMAnalyzer(client llm.Client, extractor TextExtractor) *LLMAnalyzer {
	return &LLMAnalyzer{client: client, extractor: extractor}
}

// Analyze reads the document, sends it to the model, and returns the model's description
func (a *LLMAnalyzer) Analyze(ctx context.Context, documentPath string) (string, error) {
	if a.client == nil {
		return "", &Error{Message: "LLM client is required"}
	}

	content, err := ingestion.ReadDocument(documentPath)
	if err != nil {
		return "", &Error{Message: "failed to read document", Cause: err}
	}

	excerpt := a.excerpt(ctx, documentPath)
	var attachments []llm.Attachment
	if a.client.SupportsAttachments() {
		attachments = append(attachments, llm.Attachment{MIMEType: ingestion.PDFMIMEType, Data: content})
	} else if excerpt == "" {
		return "", &Error{Message: "provider does not accept documents and no text excerpt could be extracted"}
	}

	prompt, err := buildPrompt(filepath.Base(documentPath), excerpt)
	if err != nil {
		return "", &Error{Message: "failed to build analysis prompt", Cause: err}
	}

	zap.L().Info("analyzing document structure",
		zap.String("path", documentPath),
		zap.Int("bytes", len(content)),
		zap.Bool("attached", len(attachments) > 0),
		zap.Int("excerpt_chars", len(excerpt)),
	)

	description, err := a.client.GenerateContent(ctx, prompt, llm.TierStandard, attachments...)
	if err != nil {
		return "", &Error{Message: "structure analysis request failed", Cause: err}
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", &Error{Message: "structure analysis returned an empty description"}
	}
	return description, nil
}

func (a *LLMAnalyzer) excerpt(ctx context.Context, documentPath string) string {
	if a.extractor == nil {
		return ""
	}
	text, err := a.extractor.ExtractText(ctx, documentPath)
	if err != nil {
		zap.L().Warn("text extraction failed, continuing without excerpt", zap.Error(err))
		return ""
	}
	if found := ingestion.SuspiciousPhrases(text); len(found) > 0 {
		zap.L().Warn("document text contains instruction-like phrases",
			zap.String("path", documentPath),
			zap.Strings("phrases", found),
		)
	}
	return ingestion.Truncate(text, MaxExcerptChars)
}

func buildPrompt(documentName, excerpt string) (string, error) {
	section := ""
	if excerpt != "" {
		var err error
		section, err = prompts.Render(prompts.AnalysisFile, prompts.KeyTextExcerpt, map[string]string{"Text": ingestion.QuoteExtractedText(excerpt)})
		if err != nil {
			return "", err
		}
	}
	return prompts.Render(prompts.AnalysisFile, prompts.KeyStructureAnalysis, map[string]string{
		"DocumentName": documentName,
		"TextExcerpt":  section,
	})
}
