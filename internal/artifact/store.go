// Package artifact holds the current generated parser program and structural description for a target.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// parserSuffix names the per-target parser file, e.g. "icici_parser.py"
const parserSuffix = "_parser.py"

// Error represents a failure reading or writing an artifact
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("artifact error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("artifact error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Store keeps exactly one parser file per target in dir, overwritten on every Save.
// It has one writer (the retry controller) and is never accessed concurrently for the same target.
type Store struct {
	dir         string
	description string
}

// NewStore creates a Store rooted at dir, creating the directory if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, &Error{Message: "artifact directory is required"}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to create artifact directory: %s", dir), Cause: err}
	}
	return &Store{dir: dir}, nil
}

// Dir returns the artifact directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the well-known parser location for target
func (s *Store) Path(target string) string {
	return filepath.Join(s.dir, target+parserSuffix)
}

// ValidTarget reports whether target can name a file inside the artifact directory
func ValidTarget(target string) error {
	switch {
	case strings.TrimSpace(target) == "":
		return &Error{Message: "target is empty"}
	case strings.ContainsAny(target, `/\`), strings.Contains(target, ".."):
		return &Error{Message: fmt.Sprintf("target %q must not contain path separators or \"..\"", target)}
	}
	return nil
}

// Save replaces the target's parser with source and returns its path
func (s *Store) Save(target, source string) (string, error) {
	if err := ValidTarget(target); err != nil {
		return "", err
	}
	path := s.Path(target)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return "", &Error{Message: fmt.Sprintf("failed to write parser: %s", path), Cause: err}
	}
	return path, nil
}

// SetDescription records the structural description every attempt of the current run is built from
func (s *Store) SetDescription(description string) {
	s.description = description
}

// Description returns the structural description for the current run
func (s *Store) Description() string {
	return s.description
}
