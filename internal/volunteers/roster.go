package volunteers

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet = "מתנדבים"
	areasSheet  = "תחומים"
)

var rosterColumns = []string{
	"תעודת זהות", "שם פרטי", "שם משפחה", "טלפון", "מייל", "מין",
	"תחומי התנדבות", "תאריך התחלה", "אושר", "טופס ביטוח לאומי", "אישור משטרה",
}

// rosterWriter builds the roster workbook: one row per volunteer, and a
// second sheet counting confirmed volunteers per area.
type rosterWriter struct {
	file        *excelize.File
	headerStyle int
	dataStyle   int
	dateStyle   int
}

func newRosterWriter() (*rosterWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return nil, err
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	data, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data style: %w", err)
	}
	dateFmt := "dd/mm/yyyy"
	date, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: &dateFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create date style: %w", err)
	}

	return &rosterWriter{file: f, headerStyle: header, dataStyle: data, dateStyle: date}, nil
}

func (w *rosterWriter) writeHeader(sheet string, columns []string) error {
	rtl := true
	if err := w.file.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return err
	}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.file.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := w.file.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		return err
	}
	return w.file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *rosterWriter) writeVolunteers(list []Volunteer) error {
	if err := w.writeHeader(rosterSheet, rosterColumns); err != nil {
		return err
	}

	widths := make([]int, len(rosterColumns))
	for i, col := range rosterColumns {
		widths[i] = utf8.RuneCountInString(col)
	}

	for i, v := range list {
		row := i + 2
		values := []interface{}{
			v.IDNumber, v.FirstName, v.LastName, v.Phone, v.Email, genderLabel(v.Gender),
			strings.Join(v.Areas, ", "), v.StartDate, yesNo(v.Confirmed), v.FormURL, v.PoliceFormURL,
		}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			style := w.dataStyle
			if t, ok := val.(interface{ IsZero() bool }); ok {
				if t.IsZero() {
					val = ""
				} else {
					style = w.dateStyle
				}
			}
			if err := w.file.SetCellValue(rosterSheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if err := w.file.SetCellStyle(rosterSheet, cell, cell, style); err != nil {
				return err
			}
			if s, ok := val.(string); ok && utf8.RuneCountInString(s) > widths[col] {
				widths[col] = utf8.RuneCountInString(s)
			}
		}
	}

	if len(list) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(rosterColumns), len(list)+1)
		if err := w.file.AutoFilter(rosterSheet, "A1:"+last, nil); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		// Min width 10, max width 50
		cw := float64(width) + 2
		if cw < 10 {
			cw = 10
		}
		if cw > 50 {
			cw = 50
		}
		if err := w.file.SetColWidth(rosterSheet, col, col, cw); err != nil {
			return err
		}
	}
	return nil
}

func (w *rosterWriter) writeStatistics(stats *Statistics) error {
	if _, err := w.file.NewSheet(areasSheet); err != nil {
		return err
	}
	if err := w.writeHeader(areasSheet, []string{"תחום", "מתנדבים מאושרים"}); err != nil {
		return err
	}

	row := 2
	for _, ac := range stats.ByArea {
		if err := w.file.SetSheetRow(areasSheet, fmt.Sprintf("A%d", row), &[]interface{}{ac.Code, ac.Count}); err != nil {
			return err
		}
		row++
	}
	if err := w.file.SetSheetRow(areasSheet, fmt.Sprintf("A%d", row), &[]interface{}{"סה\"כ", stats.TotalConfirmed}); err != nil {
		return err
	}
	return w.file.SetColWidth(areasSheet, "A", "B", 20)
}

func (w *rosterWriter) writeTo(out io.Writer) error {
	defer w.file.Close()
	return w.file.Write(out)
}

func genderLabel(g string) string {
	switch g {
	case GenderMale:
		return "זכר"
	case GenderFemale:
		return "נקבה"
	default:
		return "לא ידוע"
	}
}

func yesNo(b bool) string {
	if b {
		return "כן"
	}
	return "לא"
}
