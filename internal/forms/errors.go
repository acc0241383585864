package forms

import "errors"

var (
	// ErrTemplateNotFound wraps fs.ErrNotExist when the template is missing.
	ErrTemplateNotFound  = errors.New("template not found")
	ErrInvalidFieldCount = errors.New("exactly 6 values are required")
	ErrInvalidOutputName = errors.New("invalid output name")
	ErrMissingField      = errors.New("missing required field")
)
