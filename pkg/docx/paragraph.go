package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Paragraph is a w:p element.
type Paragraph struct {
	el *etree.Element
}

// Text returns the concatenated text of the paragraph's runs, including runs
// wrapped in hyperlinks. Tabs and breaks are rendered as "\t" and "\n".
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, child := range p.el.ChildElements() {
		switch child.FullTag() {
		case "w:r":
			writeRunText(&sb, child)
		case "w:hyperlink", "w:ins", "w:smartTag":
			for _, run := range child.SelectElements("w:r") {
				writeRunText(&sb, run)
			}
		}
	}
	return sb.String()
}

func writeRunText(sb *strings.Builder, run *etree.Element) {
	for _, child := range run.ChildElements() {
		switch child.FullTag() {
		case "w:t":
			sb.WriteString(child.Text())
		case "w:tab":
			sb.WriteByte('\t')
		case "w:br", "w:cr":
			sb.WriteByte('\n')
		}
	}
}

// SetText replaces the paragraph content with a single run holding text.
// Paragraph properties are kept, and the new run takes the run properties of
// the paragraph's first run so the filled value renders in the template font.
func (p *Paragraph) SetText(text string) {
	var runProps *etree.Element
	if first := p.firstRun(); first != nil {
		if rPr := first.SelectElement("w:rPr"); rPr != nil {
			runProps = rPr.Copy()
		}
	}

	for _, child := range p.el.ChildElements() {
		if child.FullTag() == "w:pPr" {
			continue
		}
		p.el.RemoveChild(child)
	}

	run := p.el.CreateElement("w:r")
	if runProps != nil {
		run.AddChild(runProps)
	}
	appendRunText(run, text)
}

func (p *Paragraph) firstRun() *etree.Element {
	if run := p.el.SelectElement("w:r"); run != nil {
		return run
	}
	for _, child := range p.el.ChildElements() {
		if run := child.SelectElement("w:r"); run != nil {
			return run
		}
	}
	return nil
}

// appendRunText writes text into run, turning "\n" into w:br and "\t" into w:tab.
func appendRunText(run *etree.Element, text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.CreateElement("w:br")
		}
		for j, segment := range strings.Split(line, "\t") {
			if j > 0 {
				run.CreateElement("w:tab")
			}
			if segment == "" {
				continue
			}
			t := run.CreateElement("w:t")
			t.CreateAttr("xml:space", "preserve")
			t.SetText(segment)
		}
	}
}
