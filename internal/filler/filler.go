// Package filler substitutes placeholder labels in a document template.
//
// Matching is a plain, case-sensitive substring search with no escaping.
// Entries are applied one after another to the already-modified text, so a
// value that contains another entry's label is rewritten by that later entry.
// Filling is idempotent only when no value contains any label.
package filler

import (
	"fmt"
	"strings"

	"community-registration/volunteer-forms-backend/pkg/docx"
)

// Mode selects how a matched label is rewritten.
type Mode int

const (
	// Replace substitutes the label with the value.
	Replace Mode = iota
	// Append keeps the label and writes the value after it, separated by a space.
	Append
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Stats counts what a fill pass touched.
type Stats struct {
	Paragraphs int `json:"paragraphs"`
	Cells      int `json:"cells"`
}

// Total returns the number of rewritten paragraphs and cells.
func (s Stats) Total() int {
	return s.Paragraphs + s.Cells
}

// Document is the view of a template the filler needs.
type Document interface {
	Paragraphs() []*docx.Paragraph
	Tables() []*docx.Table
}

// FillText applies subs to text and reports whether anything matched.
func FillText(text string, subs *Substitutions, mode Mode) (string, bool) {
	changed := false
	for _, e := range subs.Entries() {
		if !strings.Contains(text, e.Label) {
			continue
		}
		replacement := e.Value
		if mode == Append {
			replacement = e.Label + " " + e.Value
		}
		text = strings.ReplaceAll(text, e.Label, replacement)
		changed = true
	}
	return text, changed
}

// Fill applies subs to every body paragraph and every table cell of doc.
// Texts without any label are left untouched, including their formatting.
func Fill(doc Document, subs *Substitutions, mode Mode) Stats {
	var stats Stats

	for _, p := range doc.Paragraphs() {
		if text, ok := FillText(p.Text(), subs, mode); ok {
			p.SetText(text)
			stats.Paragraphs++
		}
	}

	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			for _, cell := range row.Cells() {
				if text, ok := FillText(cell.Text(), subs, mode); ok {
					cell.SetText(text)
					stats.Cells++
				}
			}
		}
	}

	return stats
}
