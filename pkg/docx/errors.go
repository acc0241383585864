package docx

import "errors"

var (
	// ErrMissingDocumentPart is returned when a package has no word/document.xml.
	ErrMissingDocumentPart = errors.New("docx: package has no word/document.xml part")
	// ErrMissingBody is returned when the main document part has no w:body.
	ErrMissingBody = errors.New("docx: document part has no body")
)
