package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
)

const documentPart = "word/document.xml"

// part is one entry of the zip container, kept in its original order.
type part struct {
	header zip.FileHeader
	data   []byte
}

// Document is an opened .docx package.
type Document struct {
	parts []part
	xml   *etree.Document
	body  *etree.Element
}

// Open loads the package at path. A missing file yields an error wrapping
// fs.ErrNotExist.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read loads a package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx container: %w", err)
	}

	doc := &Document{}
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		doc.parts = append(doc.parts, part{header: f.FileHeader, data: data})

		if f.Name != documentPart {
			continue
		}
		doc.xml = etree.NewDocument()
		if err := doc.xml.ReadFromBytes(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
		}
	}

	if doc.xml == nil {
		return nil, ErrMissingDocumentPart
	}
	root := doc.xml.Root()
	if root == nil {
		return nil, ErrMissingBody
	}
	doc.body = root.SelectElement("w:body")
	if doc.body == nil {
		return nil, ErrMissingBody
	}

	return doc, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", f.Name, err)
	}
	return data, nil
}

// Paragraphs returns the body-level paragraphs in document order. Paragraphs
// nested in tables are reached through Tables.
func (d *Document) Paragraphs() []*Paragraph {
	var paragraphs []*Paragraph
	for _, el := range d.body.SelectElements("w:p") {
		paragraphs = append(paragraphs, &Paragraph{el: el})
	}
	return paragraphs
}

// Tables returns the body-level tables in document order.
func (d *Document) Tables() []*Table {
	var tables []*Table
	for _, el := range d.body.SelectElements("w:tbl") {
		tables = append(tables, &Table{el: el})
	}
	return tables
}

// Block is one body-level element: exactly one of Paragraph and Table is set.
type Block struct {
	Paragraph *Paragraph
	Table     *Table
}

// Blocks returns the body-level paragraphs and tables interleaved in
// document order.
func (d *Document) Blocks() []Block {
	var blocks []Block
	for _, el := range d.body.ChildElements() {
		switch el.FullTag() {
		case "w:p":
			blocks = append(blocks, Block{Paragraph: &Paragraph{el: el}})
		case "w:tbl":
			blocks = append(blocks, Block{Table: &Table{el: el}})
		}
	}
	return blocks
}

// WriteTo writes the package, with the current document part, to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	content, err := d.xml.WriteToBytes()
	if err != nil {
		return 0, fmt.Errorf("failed to serialize %s: %w", documentPart, err)
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, p := range d.parts {
		header := p.header
		data := p.data
		if header.Name == documentPart {
			data = content
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     header.Name,
			Method:   header.Method,
			Modified: header.Modified,
			Comment:  header.Comment,
		})
		if err != nil {
			return cw.n, fmt.Errorf("failed to create part %s: %w", header.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return cw.n, fmt.Errorf("failed to write part %s: %w", header.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finalize docx container: %w", err)
	}
	return cw.n, nil
}

// Save writes the package to path, replacing any existing file.
func (d *Document) Save(path string) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
