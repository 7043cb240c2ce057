package pipeline

import (
	"bytes"
	"regexp"
)

// Highlight placeholders use Unicode Private Use Area characters, which
// Goldmark passes through untouched.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==([^=\n]+?)==`)
)

// normalizeMarkdown prepares Markdown source for Goldmark: line endings
// become \n, runs of blank lines collapse to one, and ==text== is marked for
// highlighting.
func normalizeMarkdown(src []byte) []byte {
	src = crlfOrCR.ReplaceAll(src, []byte("\n"))
	src = highlightPattern.ReplaceAll(src, []byte(markStart+"$1"+markEnd))
	return multipleBlankLines.ReplaceAll(src, []byte("\n\n"))
}

// finishMarks turns highlight placeholders in rendered HTML into <mark> tags.
func finishMarks(html []byte) []byte {
	html = bytes.ReplaceAll(html, []byte(markStart), []byte("<mark>"))
	return bytes.ReplaceAll(html, []byte(markEnd), []byte("</mark>"))
}
