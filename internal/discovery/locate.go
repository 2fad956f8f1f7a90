// Package discovery locates a target's statement document and reference dataset by naming convention.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Inputs holds the resolved input files for a target. Empty fields mean no candidate existed.
type Inputs struct {
	Document  string
	Reference string
}

// HasReference reports whether a reference dataset was found
func (i Inputs) HasReference() bool {
	return i.Reference != ""
}

// DocumentCandidates returns the document file names tried for target, in priority order
func DocumentCandidates(target string) []string {
	upper := strings.ToUpper(target)
	lower := strings.ToLower(target)
	return []string{
		fmt.Sprintf("%s_sample.pdf", target),
		fmt.Sprintf("%s sample.pdf", target),
		fmt.Sprintf("%s_sample.pdf", upper),
		fmt.Sprintf("%s sample.pdf", upper),
		fmt.Sprintf("%s_sample.pdf", lower),
		fmt.Sprintf("%s sample.pdf", lower),
	}
}

// ReferenceCandidates returns the reference file names tried for target, in priority order
func ReferenceCandidates(target string) []string {
	return []string{
		fmt.Sprintf("%s_expected.csv", target),
		fmt.Sprintf("%s_result.csv", target),
		fmt.Sprintf("%s.csv", target),
		fmt.Sprintf("expected_%s.csv", target),
		"result.csv",
		"expected.csv",
	}
}

// Locate resolves the document and reference for target under dataDir.
// The first existing candidate wins. Missing files are logged, not returned as errors.
func Locate(dataDir, target string) Inputs {
	logger := zap.L().With(zap.String("target", target))

	inputs := Inputs{
		Document:  firstExisting(dataDir, DocumentCandidates(target)),
		Reference: firstExisting(dataDir, ReferenceCandidates(target)),
	}

	if inputs.Document != "" {
		logger.Info("pdf found", zap.String("path", inputs.Document))
	} else {
		logger.Warn("no pdf file found", zap.String("data_dir", dataDir))
	}
	if inputs.Reference != "" {
		logger.Info("found csv for validation", zap.String("path", inputs.Reference))
	} else {
		logger.Info("no expected csv found; validation will be skipped", zap.String("data_dir", dataDir))
	}

	return inputs
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
