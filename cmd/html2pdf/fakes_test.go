package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// Fake Converter
// ---------------------------------------------------------------------------

// fakeConverter records requests. errs maps an input base name to the error
// its conversion returns.
type fakeConverter struct {
	mu       sync.Mutex
	requests []html2pdf.Request
	errs     map[string]error
	warnings []string
	delay    time.Duration

	active, peak int
}

func (f *fakeConverter) Convert(ctx context.Context, req html2pdf.Request) (*html2pdf.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.active++
	f.peak = max(f.peak, f.active)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := f.errs[filepath.Base(req.Input)]; err != nil {
		return nil, err
	}

	out := req.Output
	if out == "" {
		out = strings.TrimSuffix(req.Input, filepath.Ext(req.Input)) + ".pdf"
	}
	return &html2pdf.Result{Input: req.Input, Output: out, Engine: req.Engine, Pages: 1, Warnings: f.warnings}, nil
}

func (f *fakeConverter) calls() []html2pdf.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]html2pdf.Request(nil), f.requests...)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testEnv returns an environment writing to buffers and converting with conv.
func testEnv(conv Converter) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    time.Now,
		Stdout: &stdout,
		Stderr: &stderr,
		Config: config.DefaultConfig(),
		NewConverter: func(...html2pdf.Option) Converter {
			return conv
		},
	}
	return env, &stdout, &stderr
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

var errFake = errors.New("fake failure")
