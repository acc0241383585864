package pdf

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLibreOfficeBinary is used when no binary is configured.
const DefaultLibreOfficeBinary = "soffice"

// LibreOfficeConverter converts documents by invoking LibreOffice in headless
// mode. Each conversion gets its own scratch directory and user profile so
// concurrent conversions do not contend for the profile lock.
type LibreOfficeConverter struct {
	Binary string
	Runner CommandRunner
}

// NewLibreOfficeConverter creates a LibreOfficeConverter with a real command runner.
func NewLibreOfficeConverter(binary string) *LibreOfficeConverter {
	if binary == "" {
		binary = DefaultLibreOfficeBinary
	}
	return &LibreOfficeConverter{Binary: binary, Runner: &ExecRunner{}}
}

// Convert renders docxPath into pdfPath.
func (c *LibreOfficeConverter) Convert(ctx context.Context, docxPath, pdfPath string) error {
	if _, err := os.Stat(docxPath); err != nil {
		return fmt.Errorf("failed to stat %s: %w", docxPath, err)
	}

	scratch, err := os.MkdirTemp("", "forms-soffice-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	profile := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(scratch, "profile"))}
	outDir := filepath.Join(scratch, "out")

	_, stderr, err := c.Runner.Run(ctx, c.Binary,
		"-env:UserInstallation="+profile.String(),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		docxPath,
	)
	if err != nil {
		return fmt.Errorf("converting %s with %s: %s: %w", docxPath, c.Binary, strings.TrimSpace(stderr), err)
	}

	base := strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))
	produced := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("%w: %s", ErrConverterFailed, strings.TrimSpace(stderr))
	}

	return moveFile(produced, pdfPath)
}
