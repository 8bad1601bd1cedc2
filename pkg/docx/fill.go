package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	paragraphPattern = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?>.*?</w:p>`)
	textPattern      = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
	preserveAttr     = regexp.MustCompile(`\sxml:space="[^"]*"`)
)

// Fill replaces placeholders in the body, headers and footers with values
// keyed by placeholder name, and returns the re-packed document. Blanks are
// resolved to their derived names the same way Placeholders does, so every
// blank receives the value for its own label. Placeholders without a value
// are left as they are.
func (d *Document) Fill(ctx context.Context, values map[string]string) ([]byte, error) {
	names := d.textParts()

	var mu sync.Mutex
	replaced := make(map[string][]byte, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := d.Part(name)
			if err != nil {
				return err
			}

			out, changed := fillPart(data, values)
			if !changed {
				return nil
			}

			mu.Lock()
			replaced[name] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fill document: %w", err)
	}

	return d.write(replaced)
}

func fillPart(data []byte, values map[string]string) ([]byte, bool) {
	changed := false
	out := paragraphPattern.ReplaceAllFunc(data, func(para []byte) []byte {
		next, ok := fillParagraph(para, values)
		if ok {
			changed = true
		}
		return next
	})
	return out, changed
}

// segment is one <w:t> element of a paragraph. Offsets index the paragraph
// XML; text is the unescaped content.
type segment struct {
	open  [2]int
	inner [2]int
	text  string
	dirty bool
}

type edit struct {
	start, end int
	value      string
}

func fillParagraph(para []byte, values map[string]string) ([]byte, bool) {
	matches := textPattern.FindAllSubmatchIndex(para, -1)
	if len(matches) == 0 {
		return para, false
	}

	segs := make([]segment, len(matches))
	var full strings.Builder
	for i, m := range matches {
		segs[i] = segment{
			open:  [2]int{m[0], m[2]},
			inner: [2]int{m[2], m[3]},
			text:  html.UnescapeString(string(para[m[2]:m[3]])),
		}
		full.WriteString(segs[i].text)
	}

	edits := planEdits(full.String(), values)
	if len(edits) == 0 {
		return para, false
	}

	// Apply back to front so earlier offsets stay valid.
	for _, e := range slices.Backward(edits) {
		applyEdit(segs, e)
	}

	return render(para, segs), true
}

func planEdits(text string, values map[string]string) []edit {
	var edits []edit
	for _, m := range bracketPattern.FindAllStringSubmatchIndex(text, -1) {
		value, ok := values[resolveName(text, m)]
		if !ok {
			continue
		}
		edits = append(edits, edit{start: m[0], end: m[1], value: value})
	}
	return edits
}

// applyEdit rewrites the segments covering [e.start, e.end). A placeholder
// held by one run is replaced inside that run; one split across runs is
// written into the first run and removed from the others.
func applyEdit(segs []segment, e edit) {
	pos := 0
	first := -1
	for i := range segs {
		s := &segs[i]
		segStart, segEnd := pos, pos+len(s.text)
		pos = segEnd

		if segEnd <= e.start || segStart >= e.end {
			continue
		}

		lo := max(e.start, segStart) - segStart
		hi := min(e.end, segEnd) - segStart

		if first == -1 {
			first = i
			s.text = s.text[:lo] + e.value + s.text[hi:]
		} else {
			s.text = s.text[:lo] + s.text[hi:]
		}
		s.dirty = true
	}
}

func render(para []byte, segs []segment) []byte {
	var buf bytes.Buffer
	last := 0

	for _, s := range segs {
		if !s.dirty {
			continue
		}
		buf.Write(para[last:s.open[0]])

		open := para[s.open[0]:s.open[1]]
		open = preserveAttr.ReplaceAll(open, nil)
		buf.Write(open[:len(open)-1])
		buf.WriteString(` xml:space="preserve">`)

		_ = xml.EscapeText(&buf, []byte(s.text))
		last = s.inner[1]
	}
	buf.Write(para[last:])

	return buf.Bytes()
}
