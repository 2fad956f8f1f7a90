// Package ingestion reads statement documents and produces text excerpts for LLM prompts.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// PDFMIMEType is the media type attached when sending a statement to a model
const PDFMIMEType = "application/pdf"

var excessiveBlankLines = regexp.MustCompile(`\n\n\n+`)

// CleanLayoutText normalizes extracted text while keeping column alignment intact.
// Line endings become LF, trailing whitespace is dropped, form feeds become page
// separators, and runs of blank lines are reduced to one.
func CleanLayoutText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\f", "\n--- page break ---\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	result := strings.Join(lines, "\n")
	result = excessiveBlankLines.ReplaceAllString(result, "\n\n")
	return strings.Trim(result, "\n")
}

// Truncate limits text to maxChars bytes, cutting at the last line break before the limit.
// A non-positive maxChars disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, "\n"); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n[... truncated ...]"
}

// ReadDocument loads the raw bytes of a statement document
func ReadDocument(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("no document path provided")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("document is empty: %s", path)
	}
	return content, nil
}
