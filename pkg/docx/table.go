package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Table is a w:tbl element.
type Table struct {
	el *etree.Element
}

// Row is a w:tr element.
type Row struct {
	el *etree.Element
}

// Cell is a w:tc element.
type Cell struct {
	el *etree.Element
}

// Rows returns the table rows in order.
func (t *Table) Rows() []*Row {
	var rows []*Row
	for _, el := range t.el.SelectElements("w:tr") {
		rows = append(rows, &Row{el: el})
	}
	return rows
}

// Cells returns the row cells in order. Horizontally merged cells appear once.
func (r *Row) Cells() []*Cell {
	var cells []*Cell
	for _, el := range r.el.SelectElements("w:tc") {
		cells = append(cells, &Cell{el: el})
	}
	return cells
}

// Paragraphs returns the paragraphs directly inside the cell.
func (c *Cell) Paragraphs() []*Paragraph {
	var paragraphs []*Paragraph
	for _, el := range c.el.SelectElements("w:p") {
		paragraphs = append(paragraphs, &Paragraph{el: el})
	}
	return paragraphs
}

// Text returns the cell paragraphs' text joined by "\n".
func (c *Cell) Text() string {
	paragraphs := c.Paragraphs()
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text()
	}
	return strings.Join(texts, "\n")
}

// SetText collapses the cell to its first paragraph and sets its text.
// A cell must always hold a paragraph, so one is created if none exists.
func (c *Cell) SetText(text string) {
	paragraphs := c.Paragraphs()
	if len(paragraphs) == 0 {
		p := &Paragraph{el: c.el.CreateElement("w:p")}
		p.SetText(text)
		return
	}

	for _, extra := range paragraphs[1:] {
		c.el.RemoveChild(extra.el)
	}
	for _, nested := range c.el.SelectElements("w:tbl") {
		c.el.RemoveChild(nested)
	}
	paragraphs[0].SetText(text)
}
