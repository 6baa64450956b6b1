package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"docval/internal/validation/ports"
	dErrors "docval/pkg/domain-errors"
	"docval/pkg/requestcontext"
)

// DefaultPDFToText is the poppler binary used when none is configured.
const DefaultPDFToText = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// CheckAvailable reports whether binary can be found.
func CheckAvailable(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// PDFTextExtractor implements ports.TextExtractor by shelling out to
// pdftotext. Pages come back separated by form feeds; empty pages are dropped
// and the rest joined by a blank line.
type PDFTextExtractor struct {
	binary  string
	runner  CommandRunner
	tempDir string
	logger  *slog.Logger
}

type PDFOption func(*PDFTextExtractor)

func WithRunner(r CommandRunner) PDFOption {
	return func(e *PDFTextExtractor) {
		e.runner = r
	}
}

func WithTempDir(dir string) PDFOption {
	return func(e *PDFTextExtractor) {
		e.tempDir = dir
	}
}

func WithPDFLogger(logger *slog.Logger) PDFOption {
	return func(e *PDFTextExtractor) {
		e.logger = logger
	}
}

func NewPDFTextExtractor(binary string, opts ...PDFOption) *PDFTextExtractor {
	if binary == "" {
		binary = DefaultPDFToText
	}
	e := &PDFTextExtractor{
		binary: binary,
		runner: ExecRunner{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *PDFTextExtractor) ExtractText(ctx context.Context, upload ports.Upload) (string, error) {
	if upload.Content == nil {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("missing content for %s", upload.Kind))
	}

	tmp, err := os.CreateTemp(e.tempDir, "docval-*.pdf")
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to buffer upload")
	}
	defer os.Remove(tmp.Name())

	size, err := func() (int64, error) {
		defer tmp.Close()
		return io.Copy(tmp, upload.Content)
	}()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to buffer upload")
	}

	out, err := e.runner.Run(ctx, e.binary, "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", dErrors.Wrap(ErrPDFToolNotFound, dErrors.CodeInternal, "PDF text extraction is not available")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		e.logger.ErrorContext(ctx, "pdftotext failed",
			"request_id", requestcontext.RequestID(ctx),
			"filename", upload.Filename,
			"document", upload.Kind,
			"error", err,
		)
		return "", dErrors.Wrap(err, dErrors.CodePDFExtraction, extractionFailedMessage(upload.Filename))
	}

	text := joinPages(string(out))
	if text == "" {
		e.logger.ErrorContext(ctx, "PDF extraction failed",
			"request_id", requestcontext.RequestID(ctx),
			"filename", upload.Filename,
			"document", upload.Kind,
			"bytes", size,
		)
		return "", dErrors.New(dErrors.CodePDFExtraction, extractionFailedMessage(upload.Filename))
	}
	return text, nil
}

func joinPages(raw string) string {
	var pages []string
	for _, page := range strings.Split(raw, "\f") {
		if strings.TrimSpace(page) != "" {
			pages = append(pages, page)
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}

func extractionFailedMessage(filename string) string {
	name := ""
	if filename != "" {
		name = fmt.Sprintf(" '%s'", filename)
	}
	return fmt.Sprintf("Não foi possível extrair texto do PDF%s. "+
		"Verifique se o arquivo está válido, não está corrompido e contém texto legível.", name)
}
