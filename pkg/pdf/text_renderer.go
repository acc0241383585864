package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"

	"community-registration/volunteer-forms-backend/pkg/docx"
)

const textFontFamily = "body"

// TextOptions configures the built-in renderer.
type TextOptions struct {
	PageSize   string     `json:"page_size"`
	FontPath   string     `json:"font_path"` // UTF-8 TrueType font; required for Hebrew text
	FontSize   float64    `json:"font_size"`
	LineHeight float64    `json:"line_height"`
	Margins    PDFMargins `json:"margins"`
}

// PDFMargins represents page margins in millimetres.
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultTextOptions returns A4 options using the given font.
func DefaultTextOptions(fontPath string) TextOptions {
	return TextOptions{
		PageSize:   "A4",
		FontPath:   fontPath,
		FontSize:   11,
		LineHeight: 6,
		Margins: PDFMargins{
			Left:   15,
			Right:  15,
			Top:    20,
			Bottom: 20,
		},
	}
}

// TextRenderer lays out a document's paragraph and table text with gofpdf.
// It keeps no styling beyond reading direction, and serves hosts without
// LibreOffice.
type TextRenderer struct {
	options TextOptions
}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer(options TextOptions) *TextRenderer {
	return &TextRenderer{options: options}
}

// Convert renders docxPath into pdfPath.
func (r *TextRenderer) Convert(ctx context.Context, docxPath, pdfPath string) error {
	doc, err := docx.Open(docxPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf, translate, err := r.newPDF()
	if err != nil {
		return err
	}
	pdf.AddPage()
	r.writeBody(pdf, translate, doc)

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		_ = os.Remove(pdfPath)
		return fmt.Errorf("failed to render %s: %w", pdfPath, err)
	}
	return nil
}

func (r *TextRenderer) newPDF() (*gofpdf.Fpdf, func(string) string, error) {
	pdf := gofpdf.New("P", "mm", r.options.PageSize, "")
	pdf.SetMargins(r.options.Margins.Left, r.options.Margins.Top, r.options.Margins.Right)
	pdf.SetAutoPageBreak(true, r.options.Margins.Bottom)

	if r.options.FontPath == "" {
		pdf.SetFont("Helvetica", "", r.options.FontSize)
		return pdf, pdf.UnicodeTranslatorFromDescriptor(""), nil
	}

	if _, err := os.Stat(r.options.FontPath); err != nil {
		return nil, nil, fmt.Errorf("failed to load font: %w", err)
	}
	pdf.AddUTF8Font(textFontFamily, "", r.options.FontPath)
	pdf.SetFont(textFontFamily, "", r.options.FontSize)
	if err := pdf.Error(); err != nil {
		return nil, nil, fmt.Errorf("failed to load font %s: %w", r.options.FontPath, err)
	}
	return pdf, func(s string) string { return s }, nil
}

func (r *TextRenderer) writeBody(pdf *gofpdf.Fpdf, translate func(string) string, doc *docx.Document) {
	for _, block := range doc.Blocks() {
		if block.Table != nil {
			pdf.Ln(r.options.LineHeight / 2)
			r.writeTable(pdf, translate, block.Table)
			continue
		}
		r.writeLine(pdf, translate, block.Paragraph.Text())
	}
}

func (r *TextRenderer) writeLine(pdf *gofpdf.Fpdf, translate func(string) string, text string) {
	if strings.TrimSpace(text) == "" {
		pdf.Ln(r.options.LineHeight)
		return
	}
	align := r.direction(pdf, text)
	pdf.MultiCell(0, r.options.LineHeight, translate(text), "", align, false)
}

func (r *TextRenderer) writeTable(pdf *gofpdf.Fpdf, translate func(string) string, table *docx.Table) {
	pageWidth, _ := pdf.GetPageSize()
	available := pageWidth - r.options.Margins.Left - r.options.Margins.Right

	for _, row := range table.Rows() {
		cells := row.Cells()
		if len(cells) == 0 {
			continue
		}
		width := available / float64(len(cells))

		// Right-to-left rows are laid out from the right edge.
		if isRTL(rowText(cells)) {
			for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
				cells[i], cells[j] = cells[j], cells[i]
			}
		}
		for _, cell := range cells {
			text := strings.ReplaceAll(cell.Text(), "\n", " ")
			align := r.direction(pdf, text)
			pdf.CellFormat(width, r.options.LineHeight+2, translate(text), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// direction switches the writer to the text's reading direction and returns
// the matching alignment.
func (r *TextRenderer) direction(pdf *gofpdf.Fpdf, text string) string {
	if r.options.FontPath != "" && isRTL(text) {
		pdf.RTL()
		return "R"
	}
	pdf.LTR()
	if isRTL(text) {
		return "R"
	}
	return "L"
}

func rowText(cells []*docx.Cell) string {
	var sb strings.Builder
	for _, c := range cells {
		sb.WriteString(c.Text())
	}
	return sb.String()
}

// isRTL reports whether the first strongly directional letter of s is Hebrew
// or Arabic.
func isRTL(s string) bool {
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Hebrew, r), unicode.Is(unicode.Arabic, r):
			return true
		case unicode.IsLetter(r):
			return false
		}
	}
	return false
}
