// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// StripCodeFences removes markdown code block wrappers from generated source.
// LLMs often wrap code in ```python ... ``` blocks even when instructed not to.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line, including any language identifier
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}
