package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
)

// Table is the text of a top-level table, one string per cell. A cell holding
// several paragraphs joins them with newlines.
type Table struct {
	Rows [][]string
}

// Content is the readable text of the main document body.
type Content struct {
	Paragraphs []string
	Tables     []Table
}

// Content parses the body of the main document part.
func (d *Document) Content() (Content, error) {
	data, err := d.Part(mainPart)
	if err != nil {
		return Content{}, err
	}
	return parseContent(data)
}

type contentParser struct {
	out Content

	depth int
	table Table
	row   []string
	cell  []string
	inRun bool
	inTxt bool
	para  strings.Builder
}

func parseContent(data []byte) (Content, error) {
	p := &contentParser{}
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Content{}, fmt.Errorf("parse %s: %w", mainPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordNS {
				p.start(t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Space == wordNS {
				p.end(t.Name.Local)
			}
		case xml.CharData:
			if p.inTxt {
				p.para.Write(t)
			}
		}
	}

	return p.out, nil
}

func (p *contentParser) start(local string) {
	switch local {
	case "tbl":
		p.depth++
		if p.depth == 1 {
			p.table = Table{}
		}
	case "tr":
		if p.depth == 1 {
			p.row = nil
		}
	case "tc":
		if p.depth == 1 {
			p.cell = nil
		}
	case "p":
		p.para.Reset()
	case "r":
		p.inRun = true
	case "t":
		p.inTxt = p.inRun
	case "tab":
		if p.inRun {
			p.para.WriteByte('\t')
		}
	case "br", "cr":
		if p.inRun {
			p.para.WriteByte('\n')
		}
	}
}

func (p *contentParser) end(local string) {
	switch local {
	case "t":
		p.inTxt = false
	case "r":
		p.inRun = false
	case "p":
		if p.depth == 0 {
			p.out.Paragraphs = append(p.out.Paragraphs, p.para.String())
		} else {
			p.cell = append(p.cell, p.para.String())
		}
		p.para.Reset()
	case "tc":
		if p.depth == 1 {
			p.row = append(p.row, strings.Join(p.cell, "\n"))
		}
	case "tr":
		if p.depth == 1 {
			p.table.Rows = append(p.table.Rows, p.row)
		}
	case "tbl":
		p.depth--
		if p.depth == 0 {
			p.out.Tables = append(p.out.Tables, p.table)
		}
	}
}

// Preview renders c as plain text: non-blank paragraphs, then each table
// framed by [TABLE] and [END TABLE] with cells joined by " | ".
func Preview(c Content) string {
	var blocks []string

	for _, para := range c.Paragraphs {
		if strings.TrimSpace(para) != "" {
			blocks = append(blocks, para)
		}
	}

	for _, tbl := range c.Tables {
		blocks = append(blocks, "\n[TABLE]")
		for _, row := range tbl.Rows {
			line := strings.Join(row, " | ")
			if strings.TrimSpace(line) != "" {
				blocks = append(blocks, line)
			}
		}
		blocks = append(blocks, "[END TABLE]\n")
	}

	return strings.Join(blocks, "\n\n")
}

// HTML renders c as an HTML fragment: each non-blank paragraph as <p>, then
// each table with one <td> per cell. Line breaks inside a paragraph or cell
// become <br>.
func HTML(c Content) string {
	var b strings.Builder

	for _, para := range c.Paragraphs {
		if strings.TrimSpace(para) == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(escapeLines(para))
		b.WriteString("</p>")
	}

	for _, tbl := range c.Tables {
		b.WriteString("<table>")
		for _, row := range tbl.Rows {
			b.WriteString("<tr>")
			for _, cell := range row {
				b.WriteString("<td>")
				b.WriteString(escapeLines(cell))
				b.WriteString("</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</table>")
	}

	return b.String()
}

func escapeLines(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}
