package forms

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/filler"
	"community-registration/volunteer-forms-backend/pkg/docx"
	"community-registration/volunteer-forms-backend/pkg/pdf"
)

type Service interface {
	// GeneratePDF fills the positional template with exactly six values. The
	// output is named after the third value.
	GeneratePDF(ctx context.Context, values []string) (*Result, error)
	// FillVolunteerForm fills the named template, keeping each label and
	// appending its value. The output is named after the ID number.
	FillVolunteerForm(ctx context.Context, fields filler.NamedFields) (*Result, error)
	ListGenerations(ctx context.Context, kind *Kind, limit int) ([]FormGeneration, error)
	// OutputPath resolves a generated file name inside the output directory.
	OutputPath(name string) (string, error)
}

// Options locate templates and output.
type Options struct {
	NamedTemplate      string
	PositionalTemplate string
	OutputDir          string
	ConvertTimeout     time.Duration
	KeepTempDocx       bool
}

type formService struct {
	opts      Options
	converter pdf.Converter
	repo      Repository
	logger    *zap.Logger
	locks     *pathLocks
	now       func() time.Time
}

// NewService creates the forms service. repo may be nil to skip auditing.
func NewService(opts Options, converter pdf.Converter, repo Repository, logger *zap.Logger) Service {
	return &formService{
		opts:      opts,
		converter: converter,
		repo:      repo,
		logger:    logger,
		locks:     newPathLocks(),
		now:       time.Now,
	}
}

func (s *formService) GeneratePDF(ctx context.Context, values []string) (*Result, error) {
	if len(values) != filler.PositionalCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFieldCount, len(values))
	}
	name, err := OutputName(values[2])
	if err != nil {
		return nil, err
	}

	var arr [filler.PositionalCount]string
	copy(arr[:], values)
	subs := filler.PositionalSubstitutions(arr, s.now())

	return s.render(ctx, KindPositional, s.opts.PositionalTemplate, subs, filler.Replace, name)
}

func (s *formService) FillVolunteerForm(ctx context.Context, fields filler.NamedFields) (*Result, error) {
	for _, f := range []struct{ name, value string }{
		{"first_name", fields.FirstName},
		{"last_name", fields.LastName},
		{"id_number", fields.IDNumber},
		{"phone", fields.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	name, err := OutputName(fields.IDNumber)
	if err != nil {
		return nil, err
	}

	return s.render(ctx, KindNamed, s.opts.NamedTemplate, fields.Substitutions(), filler.Append, name)
}

func (s *formService) render(ctx context.Context, kind Kind, template string, subs *filler.Substitutions, mode filler.Mode, name string) (*Result, error) {
	doc, err := openTemplate(template)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	pdfPath := filepath.Join(s.opts.OutputDir, name+".pdf")
	tempPath := filepath.Join(s.opts.OutputDir, name+"_temp.docx")
	if !s.opts.KeepTempDocx {
		defer os.Remove(tempPath)
	}

	convertCtx := ctx
	if s.opts.ConvertTimeout > 0 {
		var cancel context.CancelFunc
		convertCtx, cancel = context.WithTimeout(ctx, s.opts.ConvertTimeout)
		defer cancel()
	}
	stats, err := fillAndConvert(convertCtx, s.converter, doc, subs, mode, tempPath, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}

	result := &Result{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		FileName:  name + ".pdf",
		Path:      pdfPath,
		Stats:     stats,
		CreatedAt: s.now().UTC(),
	}

	s.logger.Info("Generated form",
		zap.String("kind", string(kind)),
		zap.String("name", name),
		zap.Int("paragraphs", stats.Paragraphs),
		zap.Int("cells", stats.Cells))

	s.audit(ctx, result, subs)
	return result, nil
}

// FillFile fills template into docxPath and converts it to pdfPath. Unlike
// the service it leaves both files where the caller asked for them.
func FillFile(ctx context.Context, converter pdf.Converter, template string, subs *filler.Substitutions, mode filler.Mode, docxPath, pdfPath string) (filler.Stats, error) {
	doc, err := openTemplate(template)
	if err != nil {
		return filler.Stats{}, err
	}
	return fillAndConvert(ctx, converter, doc, subs, mode, docxPath, pdfPath)
}

func openTemplate(path string) (*docx.Document, error) {
	doc, err := docx.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
	}
	return doc, err
}

// fillAndConvert converts into a scratch file next to pdfPath and renames it
// into place only on success, so a failed run leaves any earlier PDF intact.
func fillAndConvert(ctx context.Context, converter pdf.Converter, doc *docx.Document, subs *filler.Substitutions, mode filler.Mode, docxPath, pdfPath string) (filler.Stats, error) {
	stats := filler.Fill(doc, subs, mode)
	if err := doc.Save(docxPath); err != nil {
		return stats, err
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	scratch, err := os.CreateTemp(filepath.Dir(pdfPath), "."+base+"-*.pdf")
	if err != nil {
		return stats, fmt.Errorf("failed to create scratch output: %w", err)
	}
	scratchPath := scratch.Name()
	scratch.Close()

	if err := converter.Convert(ctx, docxPath, scratchPath); err != nil {
		_ = os.Remove(scratchPath)
		return stats, err
	}
	if err := os.Rename(scratchPath, pdfPath); err != nil {
		_ = os.Remove(scratchPath)
		return stats, fmt.Errorf("failed to move output into place: %w", err)
	}
	return stats, nil
}

// audit records the generation. Failures are logged: the PDF already exists
// and is what the caller asked for.
func (s *formService) audit(ctx context.Context, result *Result, subs *filler.Substitutions) {
	if s.repo == nil {
		return
	}
	gen := &FormGeneration{
		ID:         result.ID,
		Kind:       result.Kind,
		OutputName: result.Name,
		OutputPath: result.Path,
		Fields:     FieldValues(subs.Map()),
		Paragraphs: result.Stats.Paragraphs,
		Cells:      result.Stats.Cells,
		CreatedAt:  result.CreatedAt,
	}
	if err := s.repo.CreateGeneration(ctx, gen); err != nil {
		s.logger.Warn("Failed to record form generation", zap.Error(err), zap.String("name", result.Name))
	}
}

func (s *formService) ListGenerations(ctx context.Context, kind *Kind, limit int) ([]FormGeneration, error) {
	if s.repo == nil {
		return []FormGeneration{}, nil
	}
	return s.repo.ListGenerations(ctx, kind, limit)
}

func (s *formService) OutputPath(name string) (string, error) {
	// Older clients send back a Windows path.
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	stem, err := OutputName(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return "", err
	}
	return filepath.Join(s.opts.OutputDir, stem+".pdf"), nil
}
