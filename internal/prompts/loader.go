// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Prompt files and keys
const (
	AnalysisFile         = "analysis.json"
	KeyStructureAnalysis = "structure-analysis"
	KeyTextExcerpt       = "text-excerpt"

	SynthesisFile       = "synthesis.json"
	KeyParserGeneration = "parser-generation"
	KeyPreviousFailure  = "previous-failure"
)

//go:embed *.json
var promptFiles embed.FS

// cache stores parsed prompt files; batch runs load prompts from several goroutines
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get retrieves a prompt by filename and key.
// Returns an error if the file or key is not found.
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// MustGet retrieves a prompt by filename and key, panicking if not found.
// Prompts are embedded, so a miss is a programming error.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Render loads a prompt and fills its {{.Key}} placeholders from data
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(template, data), nil
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
// Unknown placeholders are left in place.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, fmt.Sprintf("{{.%s}}", key), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// loadFile loads and caches a prompt file.
func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}

// ClearCache clears the prompt cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

// List returns the prompt keys in a file, sorted
func List(filename string) ([]string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// required lists the keys each prompt file must define
var required = map[string][]string{
	AnalysisFile:  {KeyStructureAnalysis, KeyTextExcerpt},
	SynthesisFile: {KeyParserGeneration, KeyPreviousFailure},
}

// CheckRequired verifies that every prompt the agent renders is present
func CheckRequired() error {
	files := make([]string, 0, len(required))
	for file := range required {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		keys, err := List(file)
		if err != nil {
			return err
		}
		for _, key := range required[file] {
			i := sort.SearchStrings(keys, key)
			if i == len(keys) || keys[i] != key {
				return fmt.Errorf("prompt key %q not found in %s", key, file)
			}
		}
	}
	return nil
}
