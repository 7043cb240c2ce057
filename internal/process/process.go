// Package process runs external rendering engines and cleans up the process
// trees they leave behind.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// ErrNotInstalled indicates the requested binary is not on PATH.
var ErrNotInstalled = errors.New("executable not found")

// Command describes one engine invocation.
type Command struct {
	Name string
	Args []string
	Env  []string // extra KEY=VALUE pairs appended to the current environment
	Dir  string
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner abstracts command execution to enable testing without real subprocesses.
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout, stderr string, err error)
}

// ExecRunner implements Runner using os/exec. The child runs in its own
// process group so that cancellation takes its helpers down with it.
type ExecRunner struct{}

// Run executes cmd and waits for it to finish or for ctx to be done.
func (ExecRunner) Run(ctx context.Context, c Command) (string, string, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) // #nosec G204 -- engine binary is operator-configured
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	configureGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("%w: %s", ErrNotInstalled, c.Name)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.String(), stderr.String(), ctxErr
		}
		return stdout.String(), stderr.String(), err
	}
	return stdout.String(), stderr.String(), nil
}

// LookPath reports the absolute path of an executable on PATH.
func LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	return p, nil
}
