package html2pdf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestResolvePaths - Input validation and output derivation
// ---------------------------------------------------------------------------

func TestResolvePaths_DefaultOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "report.html"), "<p>hi</p>")

	got, err := ResolvePaths(Request{Input: input})
	if err != nil {
		t.Fatalf("ResolvePaths() error = %v", err)
	}

	if got.Input != input {
		t.Errorf("Input = %q, want %q", got.Input, input)
	}
	if want := filepath.Join(dir, "report.pdf"); got.Output != want {
		t.Errorf("Output = %q, want %q", got.Output, want)
	}
	if want := fileutil.DirToFileURL(dir); got.BaseURI != want {
		t.Errorf("BaseURI = %q, want %q", got.BaseURI, want)
	}
}

func TestResolvePaths_CreatesOutputDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "in.html"), "<p>hi</p>")
	output := filepath.Join(dir, "a", "b", "c", "out.pdf")

	got, err := ResolvePaths(Request{Input: input, Output: output})
	if err != nil {
		t.Fatalf("ResolvePaths() error = %v", err)
	}
	if got.Output != output {
		t.Errorf("Output = %q, want %q", got.Output, output)
	}
	info, err := os.Stat(filepath.Dir(output))
	if err != nil || !info.IsDir() {
		t.Errorf("output directory not created: %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output file should not exist yet, stat error = %v", err)
	}
}

func TestResolvePaths_RelativeOutputMadeAbsolute(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "in.html"), "<p>hi</p>")

	got, err := ResolvePaths(Request{Input: input, Output: filepath.Join(dir, "x", "..", "out.pdf")})
	if err != nil {
		t.Fatalf("ResolvePaths() error = %v", err)
	}
	if !filepath.IsAbs(got.Output) || got.Output != filepath.Join(dir, "out.pdf") {
		t.Errorf("Output = %q, want clean absolute path", got.Output)
	}
}

func TestResolvePaths_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdfInput := writeFile(t, filepath.Join(dir, "already.pdf"), "%PDF")

	tests := []struct {
		name    string
		req     Request
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing input",
			req:     Request{Input: filepath.Join(dir, "missing.html")},
			wantErr: ErrNotFound,
		},
		{
			name:    "directory input",
			req:     Request{Input: dir},
			wantErr: ErrInvalidInput,
			wantMsg: "not a file",
		},
		{
			name:    "output would overwrite input",
			req:     Request{Input: pdfInput},
			wantErr: ErrInvalidInput,
			wantMsg: "overwrite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ResolvePaths(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestResolvePaths_NoSideEffectsOnFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outDir := filepath.Join(dir, "never")

	_, err := ResolvePaths(Request{
		Input:  filepath.Join(dir, "missing.html"),
		Output: filepath.Join(outDir, "out.pdf"),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrNotFound)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("output directory created despite validation failure")
	}
}

// ---------------------------------------------------------------------------
// TestResolveBaseURL - Scheme handling and defaults
// ---------------------------------------------------------------------------

func TestResolveBaseURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "doc.html"), "")
	assets := filepath.Join(dir, "assets")
	if err := os.Mkdir(assets, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "http unchanged", base: "http://example.com/docs", want: "http://example.com/docs"},
		{name: "https unchanged", base: "https://example.com/", want: "https://example.com/"},
		{name: "file unchanged", base: "file:///srv/site/", want: "file:///srv/site/"},
		{name: "scheme case-insensitive", base: "HTTPS://Example.com", want: "HTTPS://Example.com"},
		{name: "empty defaults to input dir", base: "", want: fileutil.DirToFileURL(dir)},
		{name: "directory gets trailing slash", base: assets, want: fileutil.DirToFileURL(assets)},
		{name: "file path", base: input, want: fileutil.PathToFileURL(input)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveBaseURL(tt.base, input)
			if err != nil {
				t.Fatalf("ResolveBaseURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveBaseURL(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestResolveBaseURL_RelativePathMadeAbsolute(t *testing.T) {
	t.Parallel()

	got, err := ResolveBaseURL("some/dir/", "doc.html")
	if err != nil {
		t.Fatalf("ResolveBaseURL() error = %v", err)
	}
	if !strings.HasPrefix(got, "file:///") || !strings.HasSuffix(got, "/some/dir/") {
		t.Errorf("ResolveBaseURL() = %q, want absolute directory file URI", got)
	}
}
