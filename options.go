package html2pdf

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-html2pdf/internal/process"
)

// DefaultTimeout bounds a whole conversion when no timeout is specified.
const DefaultTimeout = 2 * time.Minute

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger for warnings and diagnostics.
// The default logs warnings and errors to stderr.
func WithLogger(logger *log.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds each conversion. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) {
		c.timeout = d
	}
}

// WithSettleDelay sets the pause between page readiness and printing
// (browser engine). Zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Converter) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithBrowserDriver selects the browser automation library.
func WithBrowserDriver(d BrowserDriver) Option {
	return func(c *Converter) {
		c.driver = d
	}
}

// WithBrowserBinary points the rod driver at a specific Chrome executable.
func WithBrowserBinary(path string) Option {
	return func(c *Converter) {
		c.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox (containers and CI).
func WithNoSandbox(disabled bool) Option {
	return func(c *Converter) {
		c.noSandbox = disabled
	}
}

// WithViewport sets the browser window size in CSS pixels.
func WithViewport(v Viewport) Option {
	return func(c *Converter) {
		c.viewport = v
	}
}

// WithPage sets the printed page format and margin of the browser engine.
// Empty fields keep their defaults.
func WithPage(p PageSettings) Option {
	return func(c *Converter) {
		if p.Format != "" {
			c.page.Format = p.Format
		}
		if p.Margin != "" {
			c.page.Margin = p.Margin
		}
	}
}

// WithBoxBinary sets the box-layout engine executable.
func WithBoxBinary(path string) Option {
	return func(c *Converter) {
		c.boxBinary = path
	}
}

// WithFontConfig sets the fontconfig file shared by document and stylesheets
// in the box-fonts engine.
func WithFontConfig(path string) Option {
	return func(c *Converter) {
		c.fontConfig = path
	}
}

// WithVerify toggles structural validation of the written PDF.
func WithVerify(enabled bool) Option {
	return func(c *Converter) {
		c.verify = enabled
	}
}

// WithRunner replaces the process runner used by the box engines.
func WithRunner(r process.Runner) Option {
	return func(c *Converter) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithDriver replaces the browser launcher, bypassing WithBrowserDriver.
func WithDriver(l BrowserLauncher) Option {
	return func(c *Converter) {
		c.launcher = l
	}
}
