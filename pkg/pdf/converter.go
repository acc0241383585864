// Package pdf renders filled document files to PDF files.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

var (
	// ErrConverterFailed is returned when a backend ran but produced no PDF.
	ErrConverterFailed = errors.New("pdf: converter produced no output")
	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("pdf: unknown converter backend")
)

// Converter renders the document at docxPath into a PDF at pdfPath.
type Converter interface {
	Convert(ctx context.Context, docxPath, pdfPath string) error
}

// CommandRunner abstracts command execution so backends can be tested
// without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec. The process is killed
// when ctx is done.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return stdout.String(), stderr.String(), err
}

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Binary   string
	FontPath string
}

// Backend names accepted by New.
const (
	BackendLibreOffice = "libreoffice"
	BackendText        = "text"
)

// New returns the converter named by opts.Backend.
func New(opts Options) (Converter, error) {
	switch opts.Backend {
	case BackendLibreOffice, "":
		return NewLibreOfficeConverter(opts.Binary), nil
	case BackendText:
		return NewTextRenderer(DefaultTextOptions(opts.FontPath)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// moveFile renames src to dst, copying when they live on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open converted file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy converted file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return os.Remove(src)
}
