// Package pipeline prepares source documents before they reach a rendering
// engine.
//
// It covers two stages:
//   - Markdown sources are rendered to standalone HTML via Goldmark
//   - HTML documents bound for the headless browser get lazy images promoted
//     and relative resource references turned into absolute file:// URLs
//
// Every stage writes a sibling working copy next to the source, so relative
// references keep resolving against the original directory. Callers own the
// working copy and must call the returned cleanup function.
//
// Rendering itself lives in the root html2pdf package.
package pipeline
