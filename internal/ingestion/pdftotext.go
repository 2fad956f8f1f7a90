package ingestion

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"
)

// PdfToText extracts layout-preserving text from PDFs using the pdftotext CLI tool
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// Available reports whether the pdftotext binary can be found
func (p *PdfToText) Available() bool {
	_, err := exec.LookPath(p.binPath)
	return err == nil
}

// ExtractText runs pdftotext -layout on the given PDF and returns cleaned stdout
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ingestion: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return CleanLayoutText(stdout.String()), nil
}
