package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/hints"
	"github.com/alnah/go-html2pdf/internal/process"
)

// versionProbeTimeout bounds each `<binary> --version` call.
const versionProbeTimeout = 10 * time.Second

// errDoctorFailed is returned after the report was printed.
var errDoctorFailed = errors.New("doctor found errors")

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Box      engineInfo `json:"box"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// engineInfo holds box-layout engine detection results.
type engineInfo struct {
	Found   bool   `json:"found"`
	Binary  string `json:"binary"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempDir      string `json:"temp_dir"`
	TempWritable bool   `json:"temp_writable"`
}

// doctorProbe abstracts system lookups so checks can be tested without
// real engines installed.
type doctorProbe struct {
	lookPath   func(name string) (string, error)
	findChrome func() (string, bool)
	runner     process.Runner
	getenv     func(string) string
	dockerenv  func() bool
	tempDir    string
}

func defaultProbe() doctorProbe {
	return doctorProbe{
		lookPath:   process.LookPath,
		findChrome: launcher.LookPath,
		runner:     process.ExecRunner{},
		getenv:     os.Getenv,
		dockerenv:  hints.IsInContainer,
		tempDir:    os.TempDir(),
	}
}

func newDoctorCmd(env *Environment) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the rendering engines can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := runDoctorCmd(cmd.Context(), jsonOutput, env, defaultProbe()); code != ExitSuccess {
				return errDoctorFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	return cmd
}

// runDoctorCmd runs the checks, prints them and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, jsonOutput bool, env *Environment, probe doctorProbe) int {
	boxBinary := ""
	browserBin := ""
	if env.Config != nil {
		boxBinary = env.Config.Box.Binary
		browserBin = env.Config.Browser.Bin
	}

	result := runDoctor(ctx, probe, boxBinary, browserBin)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, probe doctorProbe, boxBinary, browserBin string) *doctorResult {
	if boxBinary == "" {
		boxBinary = html2pdf.DefaultBoxBinary
	}
	if browserBin == "" {
		browserBin = probe.getenv("ROD_BROWSER_BIN")
	}

	result := &doctorResult{
		Status: "ready",
		Box:    engineInfo{Binary: boxBinary},
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  probe.getenv("ROD_NO_SANDBOX"),
			BrowserBin: browserBin,
		},
	}

	checkBox(ctx, probe, result)
	checkChrome(ctx, probe, result)
	checkEnvironment(probe, result)
	checkSystem(probe, result)

	// One engine is enough to convert.
	if !result.Box.Found && !result.Chrome.Found {
		result.Errors = append(result.Errors, "no rendering engine available")
	}

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkBox detects the box-layout engine.
func checkBox(ctx context.Context, probe doctorProbe, result *doctorResult) {
	path, err := probe.lookPath(result.Box.Binary)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s not found: box and box-fonts engines unavailable%s", result.Box.Binary, hints.ForEngineNotFound(result.Box.Binary)))
		return
	}
	result.Box.Found = true
	result.Box.Path = path

	if v, err := probeVersion(ctx, probe.runner, path); err == nil {
		result.Box.Version = v
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get %s version: %v", result.Box.Binary, err))
	}
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(ctx context.Context, probe doctorProbe, result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = probe.findChrome()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found: browser engine unavailable (install Chrome or set ROD_BROWSER_BIN)")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	if v, err := probeVersion(ctx, probe.runner, chromePath); err == nil {
		result.Chrome.Version = v
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// probeVersion runs `<path> --version` and returns its first output line.
func probeVersion(ctx context.Context, runner process.Runner, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	stdout, _, err := runner.Run(ctx, process.Command{Name: path, Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	return strings.TrimSpace(line), nil
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(probe doctorProbe, result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer(probe)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if probe.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Found && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1 or browser.noSandbox in config")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(probe doctorProbe) (bool, string) {
	getenv := probe.getenv
	if getenv("HTML2PDF_CONTAINER") == "1" {
		return true, "HTML2PDF_CONTAINER=1"
	}
	if probe.dockerenv() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable: every engine stages
// its output there or next to the target.
func checkSystem(probe doctorProbe, result *doctorResult) {
	result.System.TempDir = probe.tempDir
	f, err := os.CreateTemp(probe.tempDir, "html2pdf-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", probe.tempDir))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(filepath.Clean(name))
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "html2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Box engine (%s)\n", r.Box.Binary)
	if r.Box.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Box.Path)
		if r.Box.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Box.Version)
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
