// Package docx reads and rewrites WordprocessingML packages. It covers the
// subset needed for template filling: paragraph and table text, bracketed
// placeholders, and in-place replacement that keeps run formatting.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ContentType is the MIME type of a .docx package.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	mainPart = "word/document.xml"
	wordNS   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

var (
	ErrNotDocument = errors.New("not a word document")
	ErrMissingPart = errors.New("document part not found")
)

// Document is an opened package. The zip entries are kept in their original
// order so a rewritten package differs only in the parts that changed.
type Document struct {
	files []*zip.File
	parts map[string]*zip.File
}

// Open reads a .docx package from memory.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotDocument, err)
	}

	d := &Document{
		files: zr.File,
		parts: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		d.parts[f.Name] = f
	}

	if _, ok := d.parts[mainPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocument, mainPart)
	}

	return d, nil
}

// Part returns the raw bytes of a package part.
func (d *Document) Part(name string) ([]byte, error) {
	f, ok := d.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// textParts lists the main document followed by every header and footer.
func (d *Document) textParts() []string {
	names := []string{mainPart}
	for _, f := range d.files {
		dir, base := path.Split(f.Name)
		if dir != "word/" || path.Ext(base) != ".xml" {
			continue
		}
		if strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer") {
			names = append(names, f.Name)
		}
	}
	return names
}

// write re-packs the document, substituting the given parts.
func (d *Document) write(replaced map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range d.files {
		data, ok := replaced[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		fh := f.FileHeader
		fh.Method = zip.Deflate
		w, err := zw.CreateHeader(&fh)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}
	return buf.Bytes(), nil
}
