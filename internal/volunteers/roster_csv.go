package volunteers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// utf8BOM lets spreadsheet programs detect the Hebrew text as UTF-8.
const utf8BOM = "\uFEFF"

const rosterDateLayout = "02/01/2006"

// writeRosterCSV writes the same columns as the workbook's volunteer sheet.
func writeRosterCSV(out io.Writer, list []Volunteer) error {
	if _, err := io.WriteString(out, utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(out)
	w.UseCRLF = true
	if err := w.Write(rosterColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, v := range list {
		start := ""
		if !v.StartDate.IsZero() {
			start = v.StartDate.Format(rosterDateLayout)
		}
		record := []string{
			v.IDNumber, v.FirstName, v.LastName, v.Phone, v.Email, genderLabel(v.Gender),
			strings.Join(v.Areas, ", "), start, yesNo(v.Confirmed), v.FormURL, v.PoliceFormURL,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
