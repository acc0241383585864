package forms

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/filler"
	"community-registration/volunteer-forms-backend/pkg/docx"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateGeneration(ctx context.Context, gen *FormGeneration) error {
	args := m.Called(ctx, gen)
	return args.Error(0)
}

func (m *MockRepository) ListGenerations(ctx context.Context, kind *Kind, limit int) ([]FormGeneration, error) {
	args := m.Called(ctx, kind, limit)
	return args.Get(0).([]FormGeneration), args.Error(1)
}

func (m *MockRepository) DeleteGenerationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// fakeConverter records the filled document text and writes a stub PDF.
type fakeConverter struct {
	mu     sync.Mutex
	texts  []string
	err    error
	delay  time.Duration
	active int32
	peak   int32
}

func (f *fakeConverter) Convert(ctx context.Context, docxPath, pdfPath string) error {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(f.delay)

	doc, err := docx.Open(docxPath)
	if err != nil {
		return err
	}
	var lines []string
	for _, p := range doc.Paragraphs() {
		lines = append(lines, p.Text())
	}
	for _, t := range doc.Tables() {
		for _, r := range t.Rows() {
			for _, c := range r.Cells() {
				lines = append(lines, c.Text())
			}
		}
	}
	f.mu.Lock()
	f.texts = append(f.texts, strings.Join(lines, "|"))
	f.mu.Unlock()

	if f.err != nil {
		_ = os.WriteFile(pdfPath, []byte("partial"), 0o644)
		return f.err
	}
	return os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644)
}

func (f *fakeConverter) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	doc := docx.New()
	doc.AddParagraph("טופס רישום מתנדבים")
	doc.AddParagraph(filler.LabelFirstName)
	doc.AddParagraph(filler.LabelLastName)
	doc.AddParagraph(filler.LabelIDNumber)
	doc.AddParagraph(filler.LabelPhone)
	doc.AddParagraph(filler.LabelMobilePhone)
	doc.AddParagraph("תאריך: date")
	doc.AddTable([][]string{
		{"Test1", "Test2", "Test3"},
		{"Test4", "Test5", "Test6"},
	})
	path := filepath.Join(dir, "template.docx")
	require.NoError(t, doc.Save(path))
	return path
}

func newTestService(t *testing.T, conv *fakeConverter, repo Repository) (*formService, Options) {
	t.Helper()
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir)
	opts := Options{
		NamedTemplate:      tmpl,
		PositionalTemplate: tmpl,
		OutputDir:          filepath.Join(dir, "out"),
		ConvertTimeout:     5 * time.Second,
	}
	svc := NewService(opts, conv, repo, zap.NewNop()).(*formService)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC) }
	return svc, opts
}

func TestGeneratePDF_Positional(t *testing.T) {
	conv := &fakeConverter{}
	svc, opts := newTestService(t, conv, nil)

	result, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C", "D", "E", "F"})
	require.NoError(t, err)

	assert.Equal(t, "C", result.Name)
	assert.Equal(t, "C.pdf", result.FileName)
	assert.Equal(t, filepath.Join(opts.OutputDir, "C.pdf"), result.Path)
	assert.Equal(t, KindPositional, result.Kind)
	assert.FileExists(t, result.Path)
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "C_temp.docx"))

	text := conv.lastText()
	assert.Contains(t, text, "|A|B|C|D|E|F")
	assert.Contains(t, text, "תאריך: 07/03/2024")
	assert.Equal(t, 1, result.Stats.Paragraphs)
	assert.Equal(t, 6, result.Stats.Cells)
}

func TestGeneratePDF_KeepTempDocx(t *testing.T) {
	conv := &fakeConverter{}
	svc, opts := newTestService(t, conv, nil)
	svc.opts.KeepTempDocx = true

	_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C", "D", "E", "F"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(opts.OutputDir, "C_temp.docx"))
}

func TestGeneratePDF_WrongCount(t *testing.T) {
	svc, _ := newTestService(t, &fakeConverter{}, nil)

	_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C"})

	assert.ErrorIs(t, err, ErrInvalidFieldCount)
}

func TestGeneratePDF_RejectsPathInName(t *testing.T) {
	svc, opts := newTestService(t, &fakeConverter{}, nil)

	for _, name := range []string{"../escape", `..\escape`, "", "  ", "C:evil"} {
		_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", name, "D", "E", "F"})
		assert.ErrorIs(t, err, ErrInvalidOutputName, name)
	}
	assert.NoDirExists(t, opts.OutputDir)
}

func TestGeneratePDF_MissingTemplate(t *testing.T) {
	conv := &fakeConverter{}
	svc, opts := newTestService(t, conv, nil)
	svc.opts.PositionalTemplate = filepath.Join(t.TempDir(), "missing.docx")

	_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C", "D", "E", "F"})

	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "C.pdf"))
	assert.NoDirExists(t, opts.OutputDir)
	assert.Empty(t, conv.texts)
}

func TestGeneratePDF_ConverterFailureRemovesOutput(t *testing.T) {
	conv := &fakeConverter{err: errors.New("soffice crashed")}
	svc, opts := newTestService(t, conv, nil)

	_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C", "D", "E", "F"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "soffice crashed")
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "C.pdf"))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "C_temp.docx"))
}

func TestGeneratePDF_FailedRegenerationKeepsPreviousOutput(t *testing.T) {
	conv := &fakeConverter{}
	svc, opts := newTestService(t, conv, nil)
	values := []string{"A", "B", "C", "D", "E", "F"}

	_, err := svc.GeneratePDF(context.Background(), values)
	require.NoError(t, err)

	conv.err = errors.New("soffice crashed")
	_, err = svc.GeneratePDF(context.Background(), values)
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "C.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))

	leftovers, err := filepath.Glob(filepath.Join(opts.OutputDir, ".C-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestGeneratePDF_SameNameIsSerialized(t *testing.T) {
	conv := &fakeConverter{delay: 20 * time.Millisecond}
	svc, _ := newTestService(t, conv, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "same", "D", "E", "F"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&conv.peak))
	assert.Len(t, conv.texts, 4)
}

func TestFillVolunteerForm_AppendsValues(t *testing.T) {
	conv := &fakeConverter{}
	svc, opts := newTestService(t, conv, nil)

	result, err := svc.FillVolunteerForm(context.Background(), filler.NamedFields{
		FirstName: "דוד",
		LastName:  "לוי",
		IDNumber:  "123456789",
		Phone:     "050-1234567",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(opts.OutputDir, "123456789.pdf"), result.Path)
	assert.Equal(t, KindNamed, result.Kind)

	text := conv.lastText()
	assert.Contains(t, text, "שם פרטי: דוד")
	assert.Contains(t, text, "שם משפחה: לוי")
	assert.Contains(t, text, "מספר זהות: 123456789")
	assert.Contains(t, text, "טלפון: 050-1234567")
	assert.Contains(t, text, "טלפון נייד: 050-1234567")
	// Positional tokens are untouched by the named map.
	assert.Contains(t, text, "Test3")
}

func TestFillVolunteerForm_MissingField(t *testing.T) {
	svc, _ := newTestService(t, &fakeConverter{}, nil)

	_, err := svc.FillVolunteerForm(context.Background(), filler.NamedFields{FirstName: "דוד", IDNumber: "1"})

	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "last_name")
}

func TestRender_RecordsGeneration(t *testing.T) {
	repo := new(MockRepository)
	svc, _ := newTestService(t, &fakeConverter{}, repo)

	repo.On("CreateGeneration", mock.Anything, mock.MatchedBy(func(g *FormGeneration) bool {
		return g.Kind == KindPositional && g.OutputName == "C" && g.Fields["Test3"] == "C" && g.Cells == 6
	})).Return(nil)

	_, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C", "D", "E", "F"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRender_AuditFailureIsNotFatal(t *testing.T) {
	repo := new(MockRepository)
	svc, _ := newTestService(t, &fakeConverter{}, repo)
	repo.On("CreateGeneration", mock.Anything, mock.Anything).Return(errors.New("database is locked"))

	result, err := svc.GeneratePDF(context.Background(), []string{"A", "B", "C", "D", "E", "F"})

	require.NoError(t, err)
	assert.FileExists(t, result.Path)
}

func TestListGenerations(t *testing.T) {
	svc, _ := newTestService(t, &fakeConverter{}, nil)
	gens, err := svc.ListGenerations(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, gens)

	repo := new(MockRepository)
	svc, _ = newTestService(t, &fakeConverter{}, repo)
	kind := KindNamed
	repo.On("ListGenerations", mock.Anything, &kind, 10).Return([]FormGeneration{{OutputName: "1"}}, nil)

	gens, err = svc.ListGenerations(context.Background(), &kind, 10)
	require.NoError(t, err)
	assert.Len(t, gens, 1)
}

func TestOutputPath(t *testing.T) {
	svc, opts := newTestService(t, &fakeConverter{}, nil)

	tests := []struct {
		in   string
		want string
	}{
		{in: "123456789.pdf", want: "123456789.pdf"},
		{in: "123456789", want: "123456789.pdf"},
		{in: `C:\BituahLeumiForms\123456789.pdf`, want: "123456789.pdf"},
		{in: "../../etc/passwd", want: "passwd.pdf"},
	}
	for _, tt := range tests {
		got, err := svc.OutputPath(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, filepath.Join(opts.OutputDir, tt.want), got)
	}

	_, err := svc.OutputPath("")
	assert.ErrorIs(t, err, ErrInvalidOutputName)
}

func TestFillFile_KeepsBothOutputs(t *testing.T) {
	dir := t.TempDir()
	conv := &fakeConverter{}
	docxPath := filepath.Join(dir, "filled.docx")
	pdfPath := filepath.Join(dir, "filled.pdf")

	fields := filler.NamedFields{FirstName: "דוד", LastName: "לוי", IDNumber: "123456789", Phone: "0521234567"}
	stats, err := FillFile(context.Background(), conv, writeTemplate(t, dir), fields.Substitutions(), filler.Append, docxPath, pdfPath)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Paragraphs)
	assert.FileExists(t, docxPath)
	assert.FileExists(t, pdfPath)
	assert.Contains(t, conv.lastText(), "שם פרטי: דוד")
}

func TestFillFile_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	_, err := FillFile(context.Background(), &fakeConverter{}, filepath.Join(dir, "nope.docx"),
		&filler.Substitutions{}, filler.Replace, filepath.Join(dir, "a.docx"), filepath.Join(dir, "a.pdf"))

	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "a.pdf"))
}
