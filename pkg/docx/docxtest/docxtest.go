// Package docxtest builds minimal .docx packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const documentFormat = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s<w:sectPr/></w:body></w:document>`

const headerFormat = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">%s</w:hdr>`

const footerFormat = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">%s</w:ftr>`

// Builder assembles a document body from paragraphs and tables.
type Builder struct {
	body   strings.Builder
	header string
	footer string
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Paragraph adds a body paragraph. Each argument becomes its own run.
func (b *Builder) Paragraph(runs ...string) *Builder {
	b.body.WriteString(Paragraph(runs...))
	return b
}

// Table adds a table; each row lists its cell texts.
func (b *Builder) Table(rows ...[]string) *Builder {
	b.body.WriteString("<w:tbl>")
	for _, row := range rows {
		b.body.WriteString("<w:tr>")
		for _, cell := range row {
			b.body.WriteString("<w:tc>" + Paragraph(cell) + "</w:tc>")
		}
		b.body.WriteString("</w:tr>")
	}
	b.body.WriteString("</w:tbl>")
	return b
}

// Header sets the header part to a single paragraph.
func (b *Builder) Header(runs ...string) *Builder {
	b.header = Paragraph(runs...)
	return b
}

// Footer sets the footer part to a single paragraph.
func (b *Builder) Footer(runs ...string) *Builder {
	b.footer = Paragraph(runs...)
	return b
}

// Bytes returns the zipped package.
func (b *Builder) Bytes(t testing.TB) []byte {
	t.Helper()

	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"word/document.xml", fmt.Sprintf(documentFormat, b.body.String())},
	}
	if b.header != "" {
		parts = append(parts, struct{ name, body string }{"word/header1.xml", fmt.Sprintf(headerFormat, b.header)})
	}
	if b.footer != "" {
		parts = append(parts, struct{ name, body string }{"word/footer1.xml", fmt.Sprintf(footerFormat, b.footer)})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("create %s: %v", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			t.Fatalf("write %s: %v", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	return buf.Bytes()
}

// Paragraph renders one paragraph with a bold first run when several are given.
func Paragraph(runs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<w:p w:rsidR="00A1">`)
	for i, r := range runs {
		sb.WriteString("<w:r>")
		if i == 0 && len(runs) > 1 {
			sb.WriteString("<w:rPr><w:b/></w:rPr>")
		}
		sb.WriteString(`<w:t xml:space="preserve">`)
		sb.WriteString(escape(r))
		sb.WriteString("</w:t></w:r>")
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
