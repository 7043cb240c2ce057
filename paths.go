package html2pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// baseSchemes are the schemes a caller-supplied base URL may already carry.
var baseSchemes = []string{"http://", "https://", "file:"}

// ResolvePaths validates the input and computes absolute input, output and
// base locations. The output's parent directories are created only after
// every check passed, so a rejected request leaves the filesystem untouched.
func ResolvePaths(req Request) (ResolvedPaths, error) {
	info, err := os.Stat(req.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return ResolvedPaths{}, fmt.Errorf("%w: %s", ErrNotFound, req.Input)
		}
		return ResolvedPaths{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, req.Input, err)
	}
	if !info.Mode().IsRegular() {
		return ResolvedPaths{}, fmt.Errorf("%w: %s is not a file", ErrInvalidInput, req.Input)
	}

	input, err := filepath.Abs(req.Input)
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolving input path: %w", err)
	}

	output := req.Output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
	}
	output, err = filepath.Abs(output)
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolving output path: %w", err)
	}
	if output == input {
		return ResolvedPaths{}, fmt.Errorf("%w: output would overwrite input %s", ErrInvalidInput, input)
	}

	base, err := ResolveBaseURL(req.BaseURL, input)
	if err != nil {
		return ResolvedPaths{}, err
	}

	if err := os.MkdirAll(filepath.Dir(output), fileutil.DirPermissions); err != nil {
		return ResolvedPaths{}, fmt.Errorf("creating output directory: %w", err)
	}

	return ResolvedPaths{Input: input, Output: output, BaseURI: base}, nil
}

// ResolveBaseURL returns the URI relative references resolve against.
// A base that already carries an http, https or file scheme is returned
// unchanged. A bare path becomes an absolute file URI, with a trailing slash
// for directories. An empty base defaults to the input's directory.
func ResolveBaseURL(base, inputPath string) (string, error) {
	if base == "" {
		abs, err := filepath.Abs(inputPath)
		if err != nil {
			return "", fmt.Errorf("resolving input path: %w", err)
		}
		return fileutil.DirToFileURL(filepath.Dir(abs)), nil
	}

	lower := strings.ToLower(base)
	for _, scheme := range baseSchemes {
		if strings.HasPrefix(lower, scheme) {
			return base, nil
		}
	}

	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base path: %w", err)
	}
	if info, err := os.Stat(abs); (err == nil && info.IsDir()) || strings.HasSuffix(base, "/") || strings.HasSuffix(base, string(filepath.Separator)) {
		return fileutil.DirToFileURL(abs), nil
	}
	return fileutil.PathToFileURL(abs), nil
}
