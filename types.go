package html2pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-html2pdf/internal/units"
)

// Engine identifies a rendering strategy.
type Engine string

// Supported engines, from the lightest to the most faithful.
const (
	EngineBox      Engine = "box"       // CSS box-layout renderer
	EngineBoxFonts Engine = "box-fonts" // box-layout with shared font configuration
	EngineBrowser  Engine = "browser"   // headless Chrome
)

// Engines lists every supported engine in order of escalation.
var Engines = []Engine{EngineBox, EngineBoxFonts, EngineBrowser}

// ParseEngine parses an engine id (case-insensitive). Empty means EngineBox.
func ParseEngine(s string) (Engine, error) {
	switch Engine(strings.ToLower(strings.TrimSpace(s))) {
	case "", EngineBox:
		return EngineBox, nil
	case EngineBoxFonts:
		return EngineBoxFonts, nil
	case EngineBrowser:
		return EngineBrowser, nil
	}
	return "", fmt.Errorf("%w: %q (must be box, box-fonts or browser)", ErrUnknownEngine, s)
}

// MediaType selects the CSS media context of the box-fonts engine.
type MediaType string

// Media types.
const (
	MediaPrint  MediaType = "print"
	MediaScreen MediaType = "screen"
)

// ParseMediaType parses a media type (case-insensitive). Empty means MediaPrint.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case "", MediaPrint:
		return MediaPrint, nil
	case MediaScreen:
		return MediaScreen, nil
	}
	return "", fmt.Errorf("%w: %q (must be print or screen)", ErrInvalidMediaType, s)
}

// WaitCondition is the page readiness signal the browser engine waits for.
type WaitCondition string

// Wait conditions.
const (
	WaitLoad             WaitCondition = "load"
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
	WaitNetworkIdle      WaitCondition = "networkidle"
)

// ParseWaitCondition parses a wait condition (case-insensitive). Empty means WaitLoad.
func ParseWaitCondition(s string) (WaitCondition, error) {
	switch WaitCondition(strings.ToLower(strings.TrimSpace(s))) {
	case "", WaitLoad:
		return WaitLoad, nil
	case WaitDOMContentLoaded:
		return WaitDOMContentLoaded, nil
	case WaitNetworkIdle:
		return WaitNetworkIdle, nil
	}
	return "", fmt.Errorf("%w: %q (must be load, domcontentloaded or networkidle)", ErrInvalidWaitCondition, s)
}

// BrowserDriver selects the automation library behind the browser engine.
type BrowserDriver string

// Browser drivers.
const (
	DriverRod        BrowserDriver = "rod"
	DriverPlaywright BrowserDriver = "playwright"
)

// ParseBrowserDriver parses a driver name (case-insensitive). Empty means DriverRod.
func ParseBrowserDriver(s string) (BrowserDriver, error) {
	switch BrowserDriver(strings.ToLower(strings.TrimSpace(s))) {
	case "", DriverRod:
		return DriverRod, nil
	case DriverPlaywright:
		return DriverPlaywright, nil
	}
	return "", fmt.Errorf("%w: %q (must be rod or playwright)", ErrUnknownDriver, s)
}

// Request describes one conversion.
type Request struct {
	Input       string        // HTML (or Markdown) document, must be a regular file
	Output      string        // Empty = input with a .pdf extension
	BaseURL     string        // Empty = input directory (box engines only)
	Stylesheets []string      // Extra CSS files (box engines only)
	Engine      Engine        // Empty = EngineBox
	MediaType   MediaType     // box-fonts only, empty = print
	Wait        WaitCondition // browser only, empty = load
}

// ResolvedPaths holds the validated absolute locations for a conversion.
type ResolvedPaths struct {
	Input   string // absolute path of the document to render
	Output  string // absolute path of the PDF, parent directory exists
	BaseURI string // URI relative references resolve against
}

// Viewport is the browser window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// Viewport bounds in CSS pixels.
const (
	MinViewport = 320
	MaxViewport = 7680
)

// DefaultViewport is used when no viewport is configured.
var DefaultViewport = Viewport{Width: 1280, Height: 720}

// Validate checks both dimensions are within bounds.
func (v Viewport) Validate() error {
	if v.Width < MinViewport || v.Width > MaxViewport || v.Height < MinViewport || v.Height > MaxViewport {
		return fmt.Errorf("%w: %dx%d (each side must be between %d and %d)",
			ErrInvalidViewport, v.Width, v.Height, MinViewport, MaxViewport)
	}
	return nil
}

// PageSettings configures the printed page of the browser engine.
type PageSettings struct {
	Format string // "a4", "letter", ...
	Margin string // CSS length applied to all sides
}

// DefaultPageSettings returns A4 with 20mm margins.
func DefaultPageSettings() PageSettings {
	return PageSettings{Format: "a4", Margin: "20mm"}
}

// Validate checks the format is known and the margin leaves room for content.
func (p PageSettings) Validate() error {
	_, _, err := p.resolve()
	return err
}

// resolve returns the paper size and margin in inches.
func (p PageSettings) resolve() (units.PaperSize, float64, error) {
	size, err := units.LookupFormat(p.Format)
	if err != nil {
		return units.PaperSize{}, 0, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	margin, err := units.ParseLength(p.Margin)
	if err != nil {
		return units.PaperSize{}, 0, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	m := margin.Inches()
	if 2*m >= size.Width || 2*m >= size.Height {
		return units.PaperSize{}, 0, fmt.Errorf("%w: margin %s leaves no printable area on %s", ErrInvalidPage, p.Margin, p.Format)
	}
	return size, m, nil
}

// RenderOptions carries per-conversion settings into a Strategy.
type RenderOptions struct {
	Stylesheets []string
	MediaType   MediaType
	Wait        WaitCondition
}

// RenderResult is what a Strategy produced.
type RenderResult struct {
	Output   string
	Warnings []string
}

// Result describes a finished conversion.
type Result struct {
	Input    string
	Output   string
	Engine   Engine
	Pages    int // 0 when verification is disabled
	Warnings []string
	Duration time.Duration
}
