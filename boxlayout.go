package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/process"
)

// DefaultBoxBinary is the box-layout engine looked up on PATH.
const DefaultBoxBinary = "weasyprint"

// boxStrategy renders with the WeasyPrint command line. The box engine loads
// the document straight from disk; the box-fonts engine additionally runs
// document and stylesheets through one font configuration (a single engine
// process), honours the media type and turns on presentational hints.
type boxStrategy struct {
	engine     Engine
	binary     string
	fontConfig string // fontconfig file, box-fonts only
	runner     process.Runner
	logger     *log.Logger
}

func newBoxStrategy(engine Engine, binary, fontConfig string, runner process.Runner, logger *log.Logger) *boxStrategy {
	if binary == "" {
		binary = DefaultBoxBinary
	}
	return &boxStrategy{
		engine:     engine,
		binary:     binary,
		fontConfig: fontConfig,
		runner:     runner,
		logger:     logger,
	}
}

func (s *boxStrategy) Engine() Engine { return s.engine }

// Render writes the PDF to a staging file and renames it over the output only
// when the engine succeeded, so a failed run leaves nothing at the output path.
func (s *boxStrategy) Render(ctx context.Context, paths ResolvedPaths, opts RenderOptions) (RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return RenderResult{}, err
	}

	sheets, warnings := existingStylesheets(s.logger, opts.Stylesheets)
	part := fileutil.PartPath(paths.Output)
	cmd := s.command(paths, sheets, opts.MediaType, part)

	s.logger.Debug("running box engine", "engine", s.engine, "cmd", cmd.String())
	_, stderr, err := s.runner.Run(ctx, cmd)
	logEngineOutput(s.logger, stderr)
	if err != nil {
		_ = os.Remove(part)
		switch {
		case errors.Is(err, process.ErrNotInstalled):
			return RenderResult{}, renderErr(s.engine, fmt.Errorf("%w: %v", ErrEngineNotFound, err))
		case ctx.Err() != nil:
			return RenderResult{}, renderErr(s.engine, err)
		default:
			return RenderResult{}, renderErr(s.engine, fmt.Errorf("%w: %v%s", ErrEngineFailed, err, lastLine(stderr)))
		}
	}

	if !fileutil.FileExists(part) {
		return RenderResult{}, renderErr(s.engine, fmt.Errorf("%w: %s produced no output", ErrEngineFailed, s.binary))
	}
	if err := os.Rename(part, paths.Output); err != nil {
		_ = os.Remove(part)
		return RenderResult{}, renderErr(s.engine, fmt.Errorf("%w: moving output into place: %v", ErrEngineFailed, err))
	}

	return RenderResult{Output: paths.Output, Warnings: warnings}, nil
}

// command builds the engine invocation.
func (s *boxStrategy) command(paths ResolvedPaths, sheets []string, media MediaType, out string) process.Command {
	args := []string{"--base-url", paths.BaseURI}
	for _, sheet := range sheets {
		args = append(args, "--stylesheet", sheet)
	}

	var env []string
	if s.engine == EngineBoxFonts {
		if media == "" {
			media = MediaPrint
		}
		args = append(args, "--media-type", string(media), "--presentational-hints")
		if s.fontConfig != "" {
			env = append(env, "FONTCONFIG_FILE="+s.fontConfig)
		}
	}

	args = append(args, paths.Input, out)
	return process.Command{Name: s.binary, Args: args, Env: env}
}

// logEngineOutput forwards engine diagnostics at debug level.
func logEngineOutput(logger *log.Logger, stderr string) {
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			logger.Debug(line, "source", "engine")
		}
	}
}

// lastLine returns the final stderr line formatted as an error suffix.
func lastLine(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if i := strings.LastIndex(stderr, "\n"); i >= 0 {
		stderr = stderr[i+1:]
	}
	return ": " + strings.TrimSpace(stderr)
}
