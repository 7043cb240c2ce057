package html2pdf

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-html2pdf/internal/process"
)

// ---------------------------------------------------------------------------
// Fake Implementations
// ---------------------------------------------------------------------------

// fakeRunner records engine invocations. Unless err is set it writes pdf to
// the command's last argument, like the real engine would.
type fakeRunner struct {
	mu       sync.Mutex
	commands []process.Command
	inputs   [][]byte // content of the input document at run time
	pdf      []byte
	stderr   string
	err      error
	noOutput bool
	block    bool // wait for ctx to be done
	panics   bool
}

func (f *fakeRunner) Run(ctx context.Context, cmd process.Command) (string, string, error) {
	if f.panics {
		panic("engine exploded")
	}

	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	if n := len(cmd.Args); n >= 2 {
		data, _ := os.ReadFile(cmd.Args[n-2])
		f.inputs = append(f.inputs, data)
	}
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	if f.err != nil {
		// A crashing engine may leave a partial file behind.
		_ = os.WriteFile(cmd.Args[len(cmd.Args)-1], []byte("%PDF-partial"), 0o644)
		return "", f.stderr, f.err
	}
	if !f.noOutput {
		pdf := f.pdf
		if pdf == nil {
			pdf = []byte("%PDF-1.7 fake")
		}
		if err := os.WriteFile(cmd.Args[len(cmd.Args)-1], pdf, 0o644); err != nil {
			return "", "", err
		}
	}
	return "", f.stderr, nil
}

func (f *fakeRunner) last(t *testing.T) process.Command {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		t.Fatal("runner was not called")
	}
	return f.commands[len(f.commands)-1]
}

// fakeLauncher hands out fakeSessions and records what they saw.
type fakeLauncher struct {
	launchErr   error
	navigateErr error
	printErr    error
	pdf         []byte

	viewport Viewport
	session  *fakeSession
}

func (f *fakeLauncher) Launch(ctx context.Context, viewport Viewport) (BrowserSession, error) {
	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.viewport = viewport
	f.session = &fakeSession{launcher: f}
	return f.session, nil
}

type fakeSession struct {
	launcher *fakeLauncher

	uri      string
	wait     WaitCondition
	document []byte // content served at navigation time
	layout   PageLayout
	printed  bool
	closed   bool
}

func (s *fakeSession) Navigate(ctx context.Context, uri string, wait WaitCondition) error {
	s.uri = uri
	s.wait = wait
	path, err := fileURIPath(uri)
	if err != nil {
		return err
	}
	s.document, err = os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.launcher.navigateErr
}

func (s *fakeSession) PrintPDF(ctx context.Context, layout PageLayout) ([]byte, error) {
	s.layout = layout
	s.printed = true
	if s.launcher.printErr != nil {
		return nil, s.launcher.printErr
	}
	if s.launcher.pdf != nil {
		return s.launcher.pdf, nil
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeVerifier reports a fixed page count or error.
type fakeVerifier struct {
	mu    sync.Mutex
	pages int
	err   error
	paths []string
}

func (f *fakeVerifier) Verify(path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.err != nil {
		return 0, f.err
	}
	return f.pages, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testLogger returns a debug logger writing into the returned buffer.
func testLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}), &buf
}

// writeFile creates a file with content, failing the test on error.
func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// fileURIPath converts a file URI back to a local path.
func fileURIPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", errors.New("not a file URI: " + uri)
	}
	return filepath.FromSlash(u.Path), nil
}

var errFake = errors.New("fake failure")
