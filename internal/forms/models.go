package forms

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"community-registration/volunteer-forms-backend/internal/filler"
)

// Kind tells which template and substitution map produced a form.
type Kind string

const (
	KindNamed      Kind = "named"
	KindPositional Kind = "positional"
)

// Result describes a generated PDF.
type Result struct {
	ID        uuid.UUID    `json:"id"`
	Kind      Kind         `json:"kind"`
	Name      string       `json:"name"`
	FileName  string       `json:"file_name"`
	Path      string       `json:"path"`
	Stats     filler.Stats `json:"stats"`
	CreatedAt time.Time    `json:"created_at"`
}

// FormGeneration is the audit record of one generated PDF.
type FormGeneration struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Kind       Kind        `json:"kind" db:"kind"`
	OutputName string      `json:"output_name" db:"output_name"`
	OutputPath string      `json:"output_path" db:"output_path"`
	Fields     FieldValues `json:"fields" db:"fields"`
	Paragraphs int         `json:"paragraphs" db:"paragraphs"`
	Cells      int         `json:"cells" db:"cells"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// GeneratePDFRequest is the body of the positional endpoint.
type GeneratePDFRequest struct {
	Arr []string `json:"arr" binding:"required"`
}

// FieldValues are the submitted label/value pairs, stored as a JSON document.
type FieldValues map[string]string

func (f FieldValues) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *FieldValues) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into FieldValues", src)
	}
	return json.Unmarshal(data, f)
}
