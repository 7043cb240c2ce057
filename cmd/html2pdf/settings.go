package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// settings is the config file merged with command-line flags.
// Flags win over config values; unset values fall back to library defaults.
type settings struct {
	engine  html2pdf.Engine
	media   html2pdf.MediaType
	wait    html2pdf.WaitCondition
	driver  html2pdf.BrowserDriver
	baseURL string
	css     []string

	outputDir string
	timeout   time.Duration
	settle    time.Duration
	settleSet bool

	boxBinary  string
	fontConfig string
	browserBin string
	noSandbox  bool
	viewport   html2pdf.Viewport // zero = default
	page       html2pdf.PageSettings

	// ignored lists flags the selected engine does not honour.
	ignored []string
}

// resolveSettings merges cfg and the flags set on fs. fs may be nil when the
// command has no conversion flags (serve), in which case only cfg applies.
func resolveSettings(cfg *config.Config, fs *flag.FlagSet, f *convertFlags) (*settings, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if f == nil {
		f = &convertFlags{}
	}

	changed := func(name string) bool {
		return fs != nil && fs.Changed(name)
	}

	rawEngine := cfg.Engine
	if changed("engine") {
		rawEngine = f.engine.engine
	}
	engine, err := html2pdf.ParseEngine(rawEngine)
	if err != nil {
		return nil, err
	}

	s := &settings{
		engine:     engine,
		outputDir:  cfg.Output.Dir,
		timeout:    html2pdf.DefaultTimeout,
		boxBinary:  cfg.Box.Binary,
		fontConfig: cfg.Box.FontConfig,
		browserBin: cfg.Browser.Bin,
		noSandbox:  cfg.Browser.NoSandbox,
		page: html2pdf.PageSettings{
			Format: cfg.Browser.Page.Format,
			Margin: cfg.Browser.Page.Margin,
		},
		ignored: ignoredFlags(fs, engine),
	}

	ignored := make(map[string]bool, len(s.ignored))
	for _, name := range s.ignored {
		ignored[name] = true
	}
	use := func(name string) bool {
		return changed(name) && !ignored[name]
	}

	rawMedia := cfg.Box.MediaType
	if use("media-type") {
		rawMedia = f.engine.mediaType
	}
	if s.media, err = html2pdf.ParseMediaType(rawMedia); err != nil {
		return nil, err
	}

	rawWait := cfg.Browser.Wait
	if use("wait") {
		rawWait = f.browser.wait
	}
	if s.wait, err = html2pdf.ParseWaitCondition(rawWait); err != nil {
		return nil, err
	}

	rawDriver := cfg.Browser.Driver
	if use("driver") {
		rawDriver = f.browser.driver
	}
	if s.driver, err = html2pdf.ParseBrowserDriver(rawDriver); err != nil {
		return nil, err
	}

	if d := cfg.TimeoutDuration(); d > 0 {
		s.timeout = d
	}
	if changed("timeout") {
		s.timeout = f.engine.timeout
	}

	s.settle, s.settleSet = cfg.Browser.SettleDuration()
	if use("settle") {
		s.settle, s.settleSet = f.browser.settle, true
	}

	if engine != html2pdf.EngineBrowser {
		s.css = append(s.css, cfg.Box.Stylesheets...)
	}
	if use("css") {
		s.css = append(s.css, f.output.css...)
	}
	if use("base-url") {
		s.baseURL = f.output.baseURL
	}

	if vp := cfg.Browser.Viewport; vp.Width != 0 || vp.Height != 0 {
		s.viewport = html2pdf.DefaultViewport
		if vp.Width != 0 {
			s.viewport.Width = vp.Width
		}
		if vp.Height != 0 {
			s.viewport.Height = vp.Height
		}
	}

	return s, nil
}

// options returns the converter options for s.
func (s *settings) options(logger *log.Logger) []html2pdf.Option {
	opts := []html2pdf.Option{
		html2pdf.WithLogger(logger),
		html2pdf.WithTimeout(s.timeout),
		html2pdf.WithBrowserDriver(s.driver),
		html2pdf.WithNoSandbox(s.noSandbox),
		html2pdf.WithPage(s.page),
	}
	if s.boxBinary != "" {
		opts = append(opts, html2pdf.WithBoxBinary(s.boxBinary))
	}
	if s.fontConfig != "" {
		opts = append(opts, html2pdf.WithFontConfig(s.fontConfig))
	}
	if s.browserBin != "" {
		opts = append(opts, html2pdf.WithBrowserBinary(s.browserBin))
	}
	if s.settleSet {
		opts = append(opts, html2pdf.WithSettleDelay(s.settle))
	}
	if s.viewport != (html2pdf.Viewport{}) {
		opts = append(opts, html2pdf.WithViewport(s.viewport))
	}
	return opts
}

// request builds the conversion request for one input.
func (s *settings) request(input, output string) html2pdf.Request {
	return html2pdf.Request{
		Input:       input,
		Output:      output,
		BaseURL:     s.baseURL,
		Stylesheets: s.css,
		Engine:      s.engine,
		MediaType:   s.media,
		Wait:        s.wait,
	}
}

// printSettings echoes what is about to be converted and with which options.
// Only options the engine honours are shown.
func printSettings(w io.Writer, s *settings, files []FileToConvert) {
	for _, f := range files {
		fmt.Fprintf(w, "Converting %s to PDF...\n", f.InputPath)
	}
	printKeyValue(w, "engine", string(s.engine))
	switch s.engine {
	case html2pdf.EngineBrowser:
		printKeyValue(w, "driver", string(s.driver))
		printKeyValue(w, "wait", string(s.wait))
	default:
		if s.baseURL != "" {
			printKeyValue(w, "base url", s.baseURL)
		}
		if len(s.css) > 0 {
			printKeyValue(w, "stylesheets", strings.Join(s.css, ", "))
		}
		if s.engine == html2pdf.EngineBoxFonts {
			printKeyValue(w, "media type", string(s.media))
		}
	}
	if s.timeout > 0 {
		printKeyValue(w, "timeout", s.timeout.String())
	}
}
