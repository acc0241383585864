// Package docx reads and writes WordprocessingML (.docx) packages.
//
// Only the main document part (word/document.xml) is parsed. It is exposed as
// an ordered list of body paragraphs and an ordered list of tables whose cells
// hold paragraphs. Every other part of the package is carried through
// untouched when the document is saved.
package docx
