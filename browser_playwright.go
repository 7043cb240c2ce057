package html2pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Compile-time interface checks
var (
	_ BrowserLauncher = (*playwrightLauncher)(nil)
	_ BrowserSession  = (*playwrightSession)(nil)
)

// playwrightLauncher starts Chromium through playwright-go. The driver and
// browser must have been installed with the playwright CLI beforehand.
type playwrightLauncher struct {
	noSandbox bool
}

func (p *playwrightLauncher) Launch(ctx context.Context, viewport Viewport) (BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: starting playwright: %v", ErrBrowserConnect, err)
	}
	s := &playwrightSession{pw: pw}

	opts := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)}
	if p.noSandbox {
		opts.ChromiumSandbox = playwright.Bool(false)
	}
	if timeout, ok := remainingMillis(ctx); ok {
		opts.Timeout = playwright.Float(timeout)
	}
	s.browser, err = pw.Chromium.Launch(opts)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: viewport.Width, Height: viewport.Height},
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	s.page, err = bctx.NewPage()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	return s, nil
}

// playwrightSession is one page of a playwright-controlled browser.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// waitUntil maps a wait condition to the playwright load state.
func waitUntil(w WaitCondition) *playwright.WaitUntilState {
	switch w {
	case WaitDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateLoad
	}
}

func (s *playwrightSession) Navigate(ctx context.Context, uri string, wait WaitCondition) error {
	opts := playwright.PageGotoOptions{WaitUntil: waitUntil(wait)}
	if timeout, ok := remainingMillis(ctx); ok {
		opts.Timeout = playwright.Float(timeout)
	}
	if _, err := s.page.Goto(uri, opts); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("%w: waiting for %s: %v", ErrPageLoad, wait, context.DeadlineExceeded)
		}
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return ctx.Err()
}

func (s *playwrightSession) PrintPDF(ctx context.Context, layout PageLayout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	margin := fmt.Sprintf("%gin", layout.Margin)
	data, err := s.page.PDF(playwright.PagePdfOptions{
		Width:           playwright.String(fmt.Sprintf("%gin", layout.Width)),
		Height:          playwright.String(fmt.Sprintf("%gin", layout.Height)),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String(margin),
			Bottom: playwright.String(margin),
			Left:   playwright.String(margin),
			Right:  playwright.String(margin),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// Close closes the browser and stops the playwright driver.
func (s *playwrightSession) Close() error {
	var errs []error
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
		s.browser = nil
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
		s.pw = nil
	}
	return errors.Join(errs...)
}

// remainingMillis converts the context deadline into a playwright timeout.
func remainingMillis(ctx context.Context) (float64, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return ms, true
}
