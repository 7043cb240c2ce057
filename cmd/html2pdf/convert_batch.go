package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/hints"
)

// Sentinel errors for batch operations.
var (
	ErrNoInput           = errors.New("no input specified")
	ErrOutputWithMany    = errors.New("--output cannot be used with several inputs")
	ErrDuplicateOutput   = errors.New("several inputs would write the same output")
	errConversionsFailed = errors.New("conversions failed")
)

// FileToConvert represents a single file to process.
// An empty OutputPath lets the library derive <input stem>.pdf.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Warnings   []string
	Err        error
	Duration   time.Duration
}

// planFiles pairs every input with its output path.
func planFiles(inputs []string, output, outputDir string) ([]FileToConvert, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	if output != "" && len(inputs) > 1 {
		return nil, ErrOutputWithMany
	}

	files := make([]FileToConvert, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		files[i].InputPath = in
		switch {
		case output != "":
			files[i].OutputPath = output
		case outputDir != "":
			stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			files[i].OutputPath = filepath.Join(outputDir, stem+".pdf")
		default:
			continue
		}
		if prev, dup := seen[files[i].OutputPath]; dup {
			return nil, fmt.Errorf("%w: %s and %s -> %s", ErrDuplicateOutput, prev, in, files[i].OutputPath)
		}
		seen[files[i].OutputPath] = in
	}
	return files, nil
}

// convertBatch converts files on at most workers goroutines.
// Results are returned in input order.
func convertBatch(ctx context.Context, conv Converter, workers int, files []FileToConvert, s *settings) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(max(workers, 1), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], s)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts a single file and returns the result.
func convertFile(ctx context.Context, conv Converter, f FileToConvert, s *settings) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	res, err := conv.Convert(ctx, s.request(f.InputPath, f.OutputPath))
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	result.OutputPath = res.Output
	result.Warnings = res.Warnings
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults writes one line per result and returns the failure count.
// Errors always go to stderr; quiet suppresses everything else.
func printResults(results []ConversionResult, s *settings, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)
	many := len(results) > 1

	for _, r := range results {
		if r.Err != nil {
			msg := r.Err.Error()
			if many {
				msg = r.InputPath + ": " + msg
			}
			printError(env.Stderr, "Error: %s%s", msg, hintFor(r.Err, s))
			continue
		}

		if quiet {
			continue
		}
		for _, w := range r.Warnings {
			printWarning(env.Stderr, "%s", w)
		}
		printSuccess(env.Stdout, "Successfully converted to: %s", r.OutputPath)
		if verbose {
			printDetail(env.Stdout, "%s (%v)", r.InputPath, r.Duration.Round(time.Millisecond))
		}
	}

	if !quiet && many {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}

// hintFor returns actionable hints for err, or "".
func hintFor(err error, s *settings) string {
	switch {
	case errors.Is(err, html2pdf.ErrEngineNotFound):
		binary := ""
		if s != nil {
			binary = s.boxBinary
		}
		return hints.ForEngineNotFound(binary)
	case errors.Is(err, html2pdf.ErrBrowserConnect):
		if s != nil && s.driver == html2pdf.DriverPlaywright {
			return hints.ForPlaywrightInstall()
		}
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, html2pdf.ErrInvalidPDF):
		return hints.ForInvalidPDF()
	case errors.Is(err, os.ErrPermission):
		return hints.ForOutputDirectory()
	}
	return ""
}
