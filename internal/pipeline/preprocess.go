package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// ErrPreprocess indicates the document could not be parsed or rewritten.
var ErrPreprocess = errors.New("preprocessing failed")

// lazySourceAttrs lists deferred-source attributes in priority order.
var lazySourceAttrs = []string{"data-src", "data-lazy-src"}

// lazySrcsetAttrs lists deferred responsive-source attributes in priority order.
var lazySrcsetAttrs = []string{"data-srcset", "data-lazy-srcset"}

// Preprocess prepares inputPath for browser rendering and writes the result
// to a sibling working copy. The caller must invoke cleanup once rendering
// is over, whatever its outcome.
//
// Rewrites:
//   - img[data-src] (or data-lazy-src): copied into src
//   - img[data-srcset], picture > source[data-srcset]: copied into srcset
//   - img[src], img[srcset], source[srcset], link[rel=stylesheet][href],
//     script[src]: relative references become absolute file:// URLs when
//     the target exists on disk
//
// Leaves alone:
//   - URLs with a scheme (http, https, file, data), protocol-relative URLs,
//     anchors and absolute filesystem paths
//   - relative references whose target is missing, so the failure stays
//     visible in the rendered output
func Preprocess(inputPath string) (tmpPath string, cleanup func(), err error) {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}

	raw, err := os.ReadFile(absInput) // #nosec G304 -- validated input document
	if err != nil {
		return "", nil, fmt.Errorf("%w: reading %s: %v", ErrPreprocess, inputPath, err)
	}

	out, err := RewriteDocument(raw, filepath.Dir(absInput))
	if err != nil {
		return "", nil, err
	}

	tmpPath, cleanup, err = fileutil.WriteSiblingTemp(absInput, fileutil.TempPrefix, out)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrPreprocess, err)
	}
	return tmpPath, cleanup, nil
}

// RewriteDocument applies the lazy-image and resource-path rewrites to raw
// markup, resolving relative references against docDir.
func RewriteDocument(raw []byte, docDir string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", ErrPreprocess, err)
	}

	Walk(Wrap(doc), func(el Element) {
		promoteLazySource(el)
		rewriteResource(el, docDir)
	})

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("%w: rendering HTML: %v", ErrPreprocess, err)
	}
	return buf.Bytes(), nil
}

// promoteLazySource copies deferred image sources into src and srcset.
func promoteLazySource(el Element) {
	switch el.Tag() {
	case "img":
		promoteFirst(el, lazySourceAttrs, "src")
		promoteFirst(el, lazySrcsetAttrs, "srcset")
	case "source":
		promoteFirst(el, lazySrcsetAttrs, "srcset")
	}
}

// promoteFirst copies the first non-empty attribute of from into to.
func promoteFirst(el Element, from []string, to string) {
	for _, key := range from {
		val, ok := el.Attr(key)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if cur, _ := el.Attr(to); cur != val {
			el.SetAttr(to, val)
		}
		return
	}
}

// rewriteResource makes the element's resource references absolute.
func rewriteResource(el Element, docDir string) {
	var attr string
	switch el.Tag() {
	case "img":
		rewriteSrcset(el, docDir)
		attr = "src"
	case "source":
		rewriteSrcset(el, docDir)
		return
	case "script":
		attr = "src"
	case "link":
		if !isStylesheetLink(el) {
			return
		}
		attr = "href"
	default:
		return
	}

	val, ok := el.Attr(attr)
	if !ok {
		return
	}
	if resolved, ok := resolveLocal(val, docDir); ok {
		el.SetAttr(attr, resolved)
	}
}

// rewriteSrcset resolves each local candidate URL of the srcset attribute,
// keeping descriptors as written.
func rewriteSrcset(el Element, docDir string) {
	val, ok := el.Attr("srcset")
	if !ok {
		return
	}
	candidates := parseSrcset(val)
	changed := false
	for i, c := range candidates {
		if resolved, ok := resolveLocal(c.url, docDir); ok {
			candidates[i].url = resolved
			changed = true
		}
	}
	if !changed {
		return
	}

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.url
		if c.descriptor != "" {
			parts[i] += " " + c.descriptor
		}
	}
	el.SetAttr("srcset", strings.Join(parts, ", "))
}

type srcsetCandidate struct {
	url        string
	descriptor string
}

// parseSrcset splits a srcset value into candidates. A URL runs to the next
// whitespace, so commas inside URLs (data: URIs) survive; trailing commas end
// a candidate without descriptors.
func parseSrcset(v string) []srcsetCandidate {
	var out []srcsetCandidate
	i := 0
	for i < len(v) {
		for i < len(v) && (isSpace(v[i]) || v[i] == ',') {
			i++
		}
		if i >= len(v) {
			break
		}

		start := i
		for i < len(v) && !isSpace(v[i]) {
			i++
		}
		u := v[start:i]
		if trimmed := strings.TrimRight(u, ","); trimmed != u {
			out = append(out, srcsetCandidate{url: trimmed})
			continue
		}

		start = i
		depth := 0
		for i < len(v) {
			switch v[i] {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			}
			if v[i] == ',' && depth == 0 {
				break
			}
			i++
		}
		out = append(out, srcsetCandidate{url: u, descriptor: strings.TrimSpace(v[start:i])})
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// isStylesheetLink reports whether rel contains the "stylesheet" token.
func isStylesheetLink(el Element) bool {
	rel, _ := el.Attr("rel")
	for _, tok := range strings.Fields(rel) {
		if strings.EqualFold(tok, "stylesheet") {
			return true
		}
	}
	return false
}

// resolveLocal turns a relative reference into a file:// URL if its target
// exists under docDir. The query and fragment, if any, are carried over.
func resolveLocal(ref, docDir string) (string, bool) {
	if !isRelativeRef(ref) {
		return "", false
	}

	pathPart, suffix := splitSuffix(ref)
	if pathPart == "" {
		return "", false
	}

	candidates := []string{pathPart}
	if unescaped, err := url.PathUnescape(pathPart); err == nil && unescaped != pathPart {
		candidates = append(candidates, unescaped)
	}

	for _, p := range candidates {
		abs := filepath.Join(docDir, filepath.FromSlash(p))
		if fileutil.FileExists(abs) {
			return fileutil.PathToFileURL(abs) + suffix, true
		}
	}
	return "", false
}

// isRelativeRef returns true if the reference should be resolved locally.
func isRelativeRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if fileutil.HasScheme(ref) || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "#") {
		return false
	}
	// Any other scheme (blob:, about:, javascript:) is not a path either.
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return false
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return false
	}
	return true
}

// splitSuffix separates "a/b.css?v=1#x" into "a/b.css" and "?v=1#x".
func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}
