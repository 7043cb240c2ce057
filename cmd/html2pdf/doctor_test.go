package main

// Notes:
// - Checks run against a fake probe: real engines are not assumed installed.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/alnah/go-html2pdf/internal/process"
)

// ---------------------------------------------------------------------------
// Fake probe
// ---------------------------------------------------------------------------

type versionRunner struct {
	out string
	err error
}

func (r versionRunner) Run(context.Context, process.Command) (string, string, error) {
	return r.out, "", r.err
}

// fakeProbe returns a probe where WeasyPrint and Chrome are found when the
// corresponding flag is set. Chrome resolves to a real temp file because the
// check stats it.
func fakeProbe(t *testing.T, box, chrome bool, env map[string]string) doctorProbe {
	t.Helper()
	chromePath := writeFile(t, filepath.Join(t.TempDir(), "chrome"), "")
	return doctorProbe{
		lookPath: func(name string) (string, error) {
			if !box {
				return "", process.ErrNotInstalled
			}
			return "/usr/bin/" + name, nil
		},
		findChrome: func() (string, bool) {
			return chromePath, chrome
		},
		runner:    versionRunner{out: "Tool 1.2.3\nextra\n"},
		getenv:    func(k string) string { return env[k] },
		dockerenv: func() bool { return false },
		tempDir:   t.TempDir(),
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctor - Status
// ---------------------------------------------------------------------------

func TestRunDoctor_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		box        bool
		chrome     bool
		wantStatus string
		wantText   string
	}{
		{name: "both engines", box: true, chrome: true, wantStatus: "ready"},
		{name: "box only", box: true, wantStatus: "warnings", wantText: "browser engine unavailable"},
		{name: "chrome only", chrome: true, wantStatus: "warnings", wantText: "hint: install WeasyPrint"},
		{name: "nothing", wantStatus: "errors", wantText: "no rendering engine available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := runDoctor(context.Background(), fakeProbe(t, tt.box, tt.chrome, nil), "", "")
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (warnings %v, errors %v)", r.Status, tt.wantStatus, r.Warnings, r.Errors)
			}
			all := strings.Join(append(r.Warnings, r.Errors...), "\n")
			if tt.wantText != "" && !strings.Contains(all, tt.wantText) {
				t.Errorf("messages %q missing %q", all, tt.wantText)
			}
			if r.Box.Found != tt.box || r.Chrome.Found != tt.chrome {
				t.Errorf("found box=%v chrome=%v", r.Box.Found, r.Chrome.Found)
			}
		})
	}
}

func TestRunDoctor_Versions(t *testing.T) {
	t.Parallel()

	r := runDoctor(context.Background(), fakeProbe(t, true, true, nil), "weasyprint-61", "")
	if r.Box.Binary != "weasyprint-61" || r.Box.Path != "/usr/bin/weasyprint-61" {
		t.Errorf("Box = %+v", r.Box)
	}
	if r.Box.Version != "Tool 1.2.3" || r.Chrome.Version != "Tool 1.2.3" {
		t.Errorf("versions = %q, %q; want first output line", r.Box.Version, r.Chrome.Version)
	}
	if !r.Chrome.Sandbox {
		t.Error("sandbox should be enabled without ROD_NO_SANDBOX")
	}
	if !r.System.TempWritable {
		t.Error("temp dir should be writable")
	}
}

func TestRunDoctor_ConfiguredChromeMissing(t *testing.T) {
	t.Parallel()

	r := runDoctor(context.Background(), fakeProbe(t, true, true, nil), "", filepath.Join(t.TempDir(), "no-chrome"))
	if r.Status != "errors" || r.Chrome.Found {
		t.Errorf("Status = %q, Chrome = %+v", r.Status, r.Chrome)
	}
}

func TestRunDoctor_ContainerWithoutNoSandbox(t *testing.T) {
	t.Parallel()

	r := runDoctor(context.Background(), fakeProbe(t, true, true, map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"}), "", "")
	if !r.Env.Container {
		t.Fatal("container not detected")
	}
	if !strings.Contains(strings.Join(r.Warnings, "\n"), "ROD_NO_SANDBOX") {
		t.Errorf("warnings = %v, want sandbox warning", r.Warnings)
	}

	r = runDoctor(context.Background(), fakeProbe(t, true, true, map[string]string{"CI": "true", "ROD_NO_SANDBOX": "1"}), "", "")
	if !r.Env.CI || r.Chrome.Sandbox || r.Status != "ready" {
		t.Errorf("CI with no sandbox: %+v", r)
	}
}

func TestRunDoctor_TempNotWritable(t *testing.T) {
	t.Parallel()

	probe := fakeProbe(t, true, true, nil)
	probe.tempDir = filepath.Join(t.TempDir(), "missing")

	r := runDoctor(context.Background(), probe, "", "")
	if r.System.TempWritable || r.Status != "errors" {
		t.Errorf("System = %+v, Status = %q", r.System, r.Status)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd - Output formats
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(nil)
	code := runDoctorCmd(context.Background(), true, env, fakeProbe(t, true, false, nil))

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput was: %s", err, stdout.String())
	}
	if result.Status != "warnings" || code != ExitSuccess {
		t.Errorf("status = %q, exit = %d", result.Status, code)
	}
	if result.Env.OS != runtime.GOOS || result.Env.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s", result.Env.OS, result.Env.Arch)
	}
}

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(nil)
	code := runDoctorCmd(context.Background(), false, env, fakeProbe(t, false, false, nil))
	if code != ExitGeneral {
		t.Errorf("exit = %d, want %d", code, ExitGeneral)
	}

	out := stdout.String()
	for _, want := range []string{"html2pdf doctor", "Box engine (weasyprint)", "Chrome/Chromium", "[ERROR] no rendering engine available", "Status: Not ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDoctorCmd_UsesConfig(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(nil)
	env.Config.Box.Binary = "my-weasy"
	runDoctorCmd(context.Background(), false, env, fakeProbe(t, true, true, nil))

	if !strings.Contains(stdout.String(), "Box engine (my-weasy)") {
		t.Errorf("output = %s", stdout.String())
	}
}

func TestPrintDoctorResult_Statuses(t *testing.T) {
	t.Parallel()

	for status, want := range map[string]string{
		"ready":    "Status: Ready to convert",
		"warnings": "Status: Ready with warnings",
		"errors":   "Status: Not ready",
	} {
		var buf bytes.Buffer
		printDoctorResult(&buf, &doctorResult{Status: status})
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status %s: output missing %q", status, want)
		}
	}
}
