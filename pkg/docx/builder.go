package docx

import (
	"archive/zip"

	"github.com/beevik/etree"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// New returns an empty single-section document. It is used to build
// templates programmatically, mostly in tests.
func New() *Document {
	xml := etree.NewDocument()
	xml.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := xml.CreateElement("w:document")
	root.CreateAttr("xmlns:w", wordNamespace)
	body := root.CreateElement("w:body")

	return &Document{
		parts: []part{
			{header: zip.FileHeader{Name: "[Content_Types].xml", Method: zip.Deflate}, data: []byte(contentTypesXML)},
			{header: zip.FileHeader{Name: "_rels/.rels", Method: zip.Deflate}, data: []byte(packageRelsXML)},
			{header: zip.FileHeader{Name: documentPart, Method: zip.Deflate}},
		},
		xml:  xml,
		body: body,
	}
}

// AddParagraph appends a body paragraph holding text.
func (d *Document) AddParagraph(text string) *Paragraph {
	p := &Paragraph{el: d.body.CreateElement("w:p")}
	p.SetText(text)
	return p
}

// AddTable appends a table with one row per entry of rows.
func (d *Document) AddTable(rows [][]string) *Table {
	tbl := d.body.CreateElement("w:tbl")
	for _, cells := range rows {
		tr := tbl.CreateElement("w:tr")
		for _, text := range cells {
			cell := &Cell{el: tr.CreateElement("w:tc")}
			cell.SetText(text)
		}
	}
	return &Table{el: tbl}
}
