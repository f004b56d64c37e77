package ingest

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/veridianlabs/lexrag/internal/corpus"
)

// CommandRunner executes an external command and returns its stdout.
// Indirection point for tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFLoader extracts PDF text with the poppler tools (pdfinfo for the page
// count, pdftotext per page), producing one Document per page.
type PDFLoader struct {
	runner CommandRunner
}

// NewPDFLoader creates a PDF loader using the system poppler binaries.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{runner: execRunner{}}
}

// NewPDFLoaderWithRunner creates a PDF loader with a custom runner.
func NewPDFLoaderWithRunner(r CommandRunner) *PDFLoader {
	return &PDFLoader{runner: r}
}

func (l *PDFLoader) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (l *PDFLoader) Load(ctx context.Context, path string) ([]corpus.Document, error) {
	pages, err := l.pageCount(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pdf %s: %w", path, err)
	}

	docs := make([]corpus.Document, 0, pages)
	for page := 1; page <= pages; page++ {
		out, err := l.runner.Run(ctx, "pdftotext",
			"-f", strconv.Itoa(page), "-l", strconv.Itoa(page), path, "-")
		if err != nil {
			return nil, fmt.Errorf("pdf %s page %d: %w", path, page, err)
		}
		docs = append(docs, corpus.Document{
			Text:       string(out),
			Source:     path,
			Page:       page - 1,
			TotalPages: pages,
		})
	}
	return docs, nil
}

func (l *PDFLoader) pageCount(ctx context.Context, path string) (int, error) {
	out, err := l.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, fmt.Errorf("parsing page count: %w", err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("pdfinfo output missing page count")
}

var _ Loader = (*PDFLoader)(nil)
