package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/pipeline"
)

// DefaultSettleDelay is the pause between page readiness and printing that
// lets late scripts and web fonts finish.
const DefaultSettleDelay = time.Second

// BrowserLauncher starts one headless browser for one conversion.
type BrowserLauncher interface {
	Launch(ctx context.Context, viewport Viewport) (BrowserSession, error)
}

// BrowserSession is a single page in a running browser.
// Close must release the page, the browser and its process tree.
type BrowserSession interface {
	Navigate(ctx context.Context, uri string, wait WaitCondition) error
	PrintPDF(ctx context.Context, layout PageLayout) ([]byte, error)
	Close() error
}

// PageLayout is the resolved printed page, in inches.
type PageLayout struct {
	Width  float64
	Height float64
	Margin float64
}

// browserStrategy renders a preprocessed copy of the document in headless
// Chrome. The copy and the browser are always released before Render
// returns, whatever the outcome.
type browserStrategy struct {
	launcher BrowserLauncher
	viewport Viewport
	page     PageSettings
	settle   time.Duration
	logger   *log.Logger
}

func (s *browserStrategy) Engine() Engine { return EngineBrowser }

func (s *browserStrategy) Render(ctx context.Context, paths ResolvedPaths, opts RenderOptions) (result RenderResult, err error) {
	if err := ctx.Err(); err != nil {
		return RenderResult{}, renderErr(EngineBrowser, err)
	}

	size, margin, err := s.page.resolve()
	if err != nil {
		return RenderResult{}, renderErr(EngineBrowser, err)
	}

	tmpPath, cleanup, err := pipeline.Preprocess(paths.Input)
	if err != nil {
		return RenderResult{}, renderErr(EngineBrowser, err)
	}
	defer cleanup()
	s.logger.Debug("preprocessed document", "path", tmpPath)

	session, err := s.launcher.Launch(ctx, s.viewport)
	if err != nil {
		return RenderResult{}, renderErr(EngineBrowser, err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.Debug("closing browser", "err", closeErr)
		}
	}()

	wait := opts.Wait
	if wait == "" {
		wait = WaitLoad
	}
	s.logger.Debug("navigating", "uri", fileutil.PathToFileURL(tmpPath), "wait", wait)
	if err := session.Navigate(ctx, fileutil.PathToFileURL(tmpPath), wait); err != nil {
		return RenderResult{}, renderErr(EngineBrowser, navigationErr(err))
	}

	if err := sleepCtx(ctx, s.settle); err != nil {
		return RenderResult{}, renderErr(EngineBrowser, fmt.Errorf("%w: %v", ErrPageLoad, err))
	}

	data, err := session.PrintPDF(ctx, PageLayout{Width: size.Width, Height: size.Height, Margin: margin})
	if err != nil {
		return RenderResult{}, renderErr(EngineBrowser, err)
	}

	if err := fileutil.WriteFileAtomic(paths.Output, data); err != nil {
		return RenderResult{}, renderErr(EngineBrowser, fmt.Errorf("writing PDF: %w", err))
	}

	return RenderResult{Output: paths.Output}, nil
}

// navigationErr tags a failed navigation with ErrPageLoad unless the driver
// already classified it.
func navigationErr(err error) error {
	if errors.Is(err, ErrPageLoad) || errors.Is(err, ErrBrowserConnect) || errors.Is(err, ErrPageCreate) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPageLoad, err)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
