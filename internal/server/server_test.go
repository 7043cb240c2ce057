package server

// Notes:
// - ListenAndServe is exercised with an already-canceled context only;
//   binding real ports in parallel tests is flaky.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	html2pdf "github.com/alnah/go-html2pdf"
)

// ---------------------------------------------------------------------------
// Fake Converter
// ---------------------------------------------------------------------------

type fakeConverter struct {
	mu       sync.Mutex
	requests []html2pdf.Request
	docs     []string // document content at conversion time
	sheets   [][]string
	err      error
	warnings []string
}

func (f *fakeConverter) Convert(ctx context.Context, req html2pdf.Request) (*html2pdf.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	doc, _ := os.ReadFile(req.Input)
	f.docs = append(f.docs, string(doc))
	var sheets []string
	for _, s := range req.Stylesheets {
		data, _ := os.ReadFile(s)
		sheets = append(sheets, string(data))
	}
	f.sheets = append(f.sheets, sheets)

	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(req.Output, []byte("%PDF-1.7 served"), 0o644); err != nil {
		return nil, err
	}
	engine := req.Engine
	if engine == "" {
		engine = html2pdf.EngineBox
	}
	return &html2pdf.Result{Input: req.Input, Output: req.Output, Engine: engine, Pages: 2, Warnings: f.warnings}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type part struct {
	field, filename, content string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		w, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, p.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func newTestServer(conv Converter) http.Handler {
	return New(conv, log.New(io.Discard), 2).Routes()
}

func post(t *testing.T, h http.Handler, query string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartBody(t, parts...)
	req := httptest.NewRequest(http.MethodPost, "/convert"+query, body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// TestHealth
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(&fakeConverter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "OK" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// TestConvert - Upload handling
// ---------------------------------------------------------------------------

func TestConvert_Success(t *testing.T) {
	t.Parallel()

	conv := &fakeConverter{warnings: []string{"CSS file not found: x.css"}}
	rec := post(t, newTestServer(conv), "?engine=box-fonts&media=screen",
		part{"document", "report.html", "<p>hello</p>"},
		part{"stylesheet", "a.css", "p{color:red}"},
		part{"stylesheet", "b.css", "p{margin:0}"},
	)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `"report.pdf"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get("X-Pages") != "2" || rec.Header().Get("X-Engine") != "box-fonts" {
		t.Errorf("headers = %v", rec.Header())
	}
	if w := rec.Header().Get("X-Warning"); !strings.Contains(w, "CSS file not found") {
		t.Errorf("X-Warning = %q", w)
	}
	if rec.Body.String() != "%PDF-1.7 served" {
		t.Errorf("body = %q", rec.Body.String())
	}

	req := conv.requests[0]
	if req.Engine != html2pdf.EngineBoxFonts || req.MediaType != html2pdf.MediaScreen {
		t.Errorf("request = %+v", req)
	}
	if conv.docs[0] != "<p>hello</p>" {
		t.Errorf("document = %q", conv.docs[0])
	}
	if len(conv.sheets[0]) != 2 || conv.sheets[0][1] != "p{margin:0}" {
		t.Errorf("stylesheets = %v", conv.sheets[0])
	}

	// Uploads are removed once the response is written.
	if _, err := os.Stat(filepath.Dir(req.Input)); !os.IsNotExist(err) {
		t.Errorf("upload directory %s still exists", filepath.Dir(req.Input))
	}
}

func TestConvert_MarkdownKeepsExtension(t *testing.T) {
	t.Parallel()

	conv := &fakeConverter{}
	rec := post(t, newTestServer(conv), "", part{"document", "notes.md", "# hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := filepath.Base(conv.requests[0].Input); got != "document.md" {
		t.Errorf("saved as %q, want document.md", got)
	}
}

func TestConvert_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		parts []part
	}{
		{name: "no document", parts: []part{{"stylesheet", "a.css", "p{}"}}},
		{name: "two documents", parts: []part{{"document", "a.html", "a"}, {"document", "b.html", "b"}}},
		{name: "file base rejected", query: "?base=file:///etc/", parts: []part{{"document", "a.html", "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := &fakeConverter{}
			rec := post(t, newTestServer(conv), tt.query, tt.parts...)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error == "" {
				t.Errorf("error body = %+v, %v", body, err)
			}
			if len(conv.requests) != 0 {
				t.Error("converter called for bad request")
			}
		})
	}
}

func TestConvert_NotMultipart(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("<p>raw</p>"))
	req.Header.Set("Content-Type", "text/html")
	rec := httptest.NewRecorder()
	newTestServer(&fakeConverter{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConvert_ErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: %q", html2pdf.ErrUnknownEngine, "x"), want: http.StatusBadRequest},
		{err: html2pdf.ErrInvalidWaitCondition, want: http.StatusBadRequest},
		{err: &html2pdf.RenderError{Engine: html2pdf.EngineBox, Err: html2pdf.ErrEngineNotFound}, want: http.StatusServiceUnavailable},
		{err: &html2pdf.RenderError{Engine: html2pdf.EngineBrowser, Err: context.DeadlineExceeded}, want: http.StatusGatewayTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := post(t, newTestServer(&fakeConverter{err: tt.err}), "", part{"document", "a.html", "a"})
		if rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestDocumentName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"page.HTML":      "document.html",
		"page.htm":       "document.htm",
		"readme.md":      "document.md",
		"notes.markdown": "document.markdown",
		"../../etc/pwd":  "document.html",
		"":               "document.html",
	}
	for in, want := range tests {
		if got := documentName(in); got != want {
			t.Errorf("documentName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListenAndServe_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), log.New(io.Discard))
	if err != nil {
		t.Errorf("ListenAndServe() = %v, want nil after shutdown", err)
	}
}
