package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// ErrMarkdownConversion indicates Markdown to HTML conversion failed.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// markdownTemplate wraps Goldmark's fragment output in a complete HTML5 document.
const markdownTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// IsMarkdown reports whether path names a Markdown source.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// MarkdownRenderer converts Markdown sources into standalone HTML documents.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a renderer with GFM extensions and syntax
// highlighting. Highlighting uses inline styles since the rendered document
// carries no stylesheet of its own.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
			gmhtml.WithUnsafe(), // raw HTML blocks are part of the author's document
		),
	)
	return &MarkdownRenderer{md: md}
}

// ToHTML converts Markdown content to a standalone HTML5 document.
// Goldmark has no context support, so the conversion runs in a goroutine
// and the caller stops waiting on cancellation.
func (r *MarkdownRenderer) ToHTML(ctx context.Context, title string, content []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		html []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert(normalizeMarkdown(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkdownConversion, err)}
			return
		}
		doc := fmt.Sprintf(markdownTemplate, html.EscapeString(title), finishMarks(buf.Bytes()))
		done <- result{html: []byte(doc)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// RenderFile converts the Markdown file at path into a sibling HTML working
// copy. The caller must invoke cleanup after rendering.
func (r *MarkdownRenderer) RenderFile(ctx context.Context, path string) (htmlPath string, cleanup func(), err error) {
	content, err := os.ReadFile(path) // #nosec G304 -- validated input document
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading %s: %v", ErrMarkdownConversion, path, err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := r.ToHTML(ctx, title, content)
	if err != nil {
		return "", nil, err
	}

	// Keep the working copy next to the source so relative images resolve.
	htmlName := strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	htmlPath, cleanup, err = fileutil.WriteSiblingTemp(htmlName, fileutil.TempPrefix, doc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMarkdownConversion, err)
	}
	return htmlPath, cleanup, nil
}
