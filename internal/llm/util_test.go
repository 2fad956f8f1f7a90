package llm

import (
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "python code block",
			input:    "```python\nimport pandas as pd\n\ndef parse(pdf_path):\n    pass\n```",
			expected: "import pandas as pd\n\ndef parse(pdf_path):\n    pass",
		},
		{
			name:     "generic code block",
			input:    "```\ndef parse(pdf_path):\n    pass\n```",
			expected: "def parse(pdf_path):\n    pass",
		},
		{
			name:     "surrounding whitespace",
			input:    "\n\n  ```py\nx = 1\n```  \n",
			expected: "x = 1",
		},
		{
			name:     "plain source",
			input:    "def parse(pdf_path):\n    pass",
			expected: "def parse(pdf_path):\n    pass",
		},
		{
			name:     "only fences",
			input:    "```",
			expected: "",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripCodeFences(tt.input)
			if result != tt.expected {
				t.Errorf("StripCodeFences() = %q, want %q", result, tt.expected)
			}
		})
	}
}
