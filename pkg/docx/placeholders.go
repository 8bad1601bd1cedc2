package docx

import (
	"regexp"
	"strings"
)

// BlankSuffix marks a name derived from an unlabeled blank such as
// [_____________]. Those blanks are amounts, named after the nearest quoted
// term ("Purchase Amount" in $).
const BlankSuffix = " in $"

const (
	defaultBlank = "Amount" + BlankSuffix
	labelWindow  = 100
)

var (
	bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	quotePattern   = regexp.MustCompile(`["“]([^"”]+)["”]`)
)

// Placeholders returns the distinct placeholder names of c in document
// order: body paragraphs first, then table cells row by row.
func Placeholders(c Content) []string {
	var names []string
	seen := make(map[string]struct{})

	collect := func(text string) {
		for _, name := range placeholdersIn(text) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	for _, para := range c.Paragraphs {
		collect(para)
	}
	for _, tbl := range c.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row {
				collect(cell)
			}
		}
	}

	return names
}

func placeholdersIn(text string) []string {
	var names []string
	for _, m := range bracketPattern.FindAllStringSubmatchIndex(text, -1) {
		names = append(names, resolveName(text, m))
	}
	return names
}

// resolveName turns a bracket match into its placeholder name. m holds the
// submatch indexes from bracketPattern.
func resolveName(text string, m []int) string {
	inner := text[m[2]:m[3]]
	if !isBlank(inner) {
		return inner
	}
	return blankLabel(text, m[0], m[1])
}

func isBlank(inner string) bool {
	return strings.TrimSpace(strings.ReplaceAll(inner, "_", "")) == ""
}

// blankLabel names a blank spanning text[start:end]: the first quoted term
// within the following window, else the closest quoted term before it.
func blankLabel(text string, start, end int) string {
	after := []rune(text[end:])
	if len(after) > labelWindow {
		after = after[:labelWindow]
	}
	if q := quotePattern.FindStringSubmatch(string(after)); q != nil {
		return q[1] + BlankSuffix
	}

	before := quotePattern.FindAllStringSubmatch(text[:start], -1)
	if len(before) > 0 {
		return before[len(before)-1][1] + BlankSuffix
	}

	return defaultBlank
}

// Question is the prompt asked for a placeholder.
func Question(name string) string {
	return "What should I fill in for [" + name + "]?"
}
