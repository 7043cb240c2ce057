package html2pdf

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-html2pdf/internal/process"
)

// Compile-time interface checks
var (
	_ BrowserLauncher = (*rodLauncher)(nil)
	_ BrowserSession  = (*rodSession)(nil)
)

// rodLauncher starts Chrome through go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodLauncher struct {
	bin       string // empty = ROD_BROWSER_BIN or rod's lookup
	noSandbox bool
}

// Launch starts a browser and opens a blank page sized to viewport.
func (r *rodLauncher) Launch(ctx context.Context, viewport Viewport) (BrowserSession, error) {
	l := launcher.New().Context(ctx)

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := r.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if r.noSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	s := &rodSession{launcher: l}
	s.browser = rod.New().ControlURL(u).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewport.Width,
		Height:            viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}

	return s, nil
}

// rodSession is one page of a rod-controlled browser.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// lifecycleEvent maps a wait condition to the Chrome lifecycle event.
func lifecycleEvent(w WaitCondition) proto.PageLifecycleEventName {
	switch w {
	case WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameLoad
	}
}

// Navigate loads uri and blocks until the main frame of the new document
// reaches the wait condition or ctx ends. Events from iframes and from the
// previous document are ignored.
func (s *rodSession) Navigate(ctx context.Context, uri string, wait WaitCondition) error {
	page := s.page.Context(ctx)

	if err := (proto.PageSetLifecycleEventsEnabled{Enabled: true}).Call(page); err != nil {
		return fmt.Errorf("%w: enabling lifecycle events: %v", ErrPageLoad, err)
	}

	var loader proto.NetworkLoaderID
	event := lifecycleEvent(wait)
	waitNav := page.EachEvent(func(e *proto.PageLifecycleEvent) bool {
		return lifecycleReached(&loader, page.FrameID, event, e)
	})
	if err := page.Navigate(uri); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	waitNav()

	// EachEvent returns silently when ctx ends
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: waiting for %s: %v", ErrPageLoad, wait, err)
	}
	return nil
}

// lifecycleReached reports whether e is the awaited event for the document
// the main frame committed last. The "init" event of each new main-frame
// document records its loader in *loader.
func lifecycleReached(loader *proto.NetworkLoaderID, mainFrame proto.PageFrameID, name proto.PageLifecycleEventName, e *proto.PageLifecycleEvent) bool {
	if e.FrameID != mainFrame {
		return false
	}
	if e.Name == proto.PageLifecycleEventNameInit {
		*loader = e.LoaderID
		return false
	}
	return *loader != "" && e.LoaderID == *loader && e.Name == name
}

// PrintPDF prints the page with backgrounds and equal margins.
func (s *rodSession) PrintPDF(ctx context.Context, layout PageLayout) ([]byte, error) {
	reader, err := s.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(layout.Width),
		PaperHeight:     floatPtr(layout.Height),
		MarginTop:       floatPtr(layout.Margin),
		MarginBottom:    floatPtr(layout.Margin),
		MarginLeft:      floatPtr(layout.Margin),
		MarginRight:     floatPtr(layout.Margin),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// Close releases browser resources and kills the browser process tree.
func (s *rodSession) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		pid := s.launcher.PID()
		s.launcher.Kill()
		process.KillProcessGroup(pid)
		s.launcher.Cleanup()
		s.launcher = nil
	}
	return err
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
