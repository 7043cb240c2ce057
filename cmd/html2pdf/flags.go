package main

import (
	"time"

	flag "github.com/spf13/pflag"

	html2pdf "github.com/alnah/go-html2pdf"
)

// commonFlags holds flags shared by every command.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// outputFlags holds flags describing what to read and where to write.
type outputFlags struct {
	output  string
	baseURL string
	css     []string
}

// engineFlags holds rendering engine flags.
type engineFlags struct {
	engine    string
	mediaType string
	timeout   time.Duration
	workers   int
}

// browserFlags holds flags of the browser engine.
type browserFlags struct {
	wait   string
	settle time.Duration
	driver string
}

// convertFlags holds every flag of the root conversion command.
type convertFlags struct {
	output  outputFlags
	engine  engineFlags
	browser browserFlags
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVar(&f.config, "config", "", "config name or file path (.yaml, .yml, .toml)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only print errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
}

func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (default: input with .pdf extension)")
	fs.StringVarP(&f.baseURL, "base-url", "b", "", "base URL for relative references (default: input directory)")
	fs.StringArrayVarP(&f.css, "css", "c", nil, "user stylesheet, repeatable")
}

func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVarP(&f.engine, "engine", "e", string(html2pdf.EngineBox), "rendering engine: box, box-fonts, browser")
	fs.StringVarP(&f.mediaType, "media-type", "m", string(html2pdf.MediaPrint), "CSS media type for box-fonts: print, screen")
	fs.DurationVarP(&f.timeout, "timeout", "t", html2pdf.DefaultTimeout, "timeout per conversion")
	fs.IntVar(&f.workers, "workers", 0, "parallel conversions (default: based on GOMAXPROCS)")
}

func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVarP(&f.wait, "wait", "w", string(html2pdf.WaitLoad), "page readiness for browser: load, domcontentloaded, networkidle")
	fs.DurationVar(&f.settle, "settle", html2pdf.DefaultSettleDelay, "delay after readiness before printing (browser)")
	fs.StringVar(&f.driver, "driver", string(html2pdf.DriverRod), "browser driver: rod, playwright")
}

// engineOnlyFlags lists flags that only some engines honour.
// Order is the order warnings are printed in.
var engineOnlyFlags = []struct {
	name    string
	engines []html2pdf.Engine
}{
	{"css", []html2pdf.Engine{html2pdf.EngineBox, html2pdf.EngineBoxFonts}},
	{"base-url", []html2pdf.Engine{html2pdf.EngineBox, html2pdf.EngineBoxFonts}},
	{"media-type", []html2pdf.Engine{html2pdf.EngineBoxFonts}},
	{"wait", []html2pdf.Engine{html2pdf.EngineBrowser}},
	{"settle", []html2pdf.Engine{html2pdf.EngineBrowser}},
	{"driver", []html2pdf.Engine{html2pdf.EngineBrowser}},
}

// ignoredFlags returns the flags set on fs that engine does not honour.
func ignoredFlags(fs *flag.FlagSet, engine html2pdf.Engine) []string {
	var ignored []string
	for _, f := range engineOnlyFlags {
		if fs == nil || !fs.Changed(f.name) {
			continue
		}
		applies := false
		for _, e := range f.engines {
			if e == engine {
				applies = true
				break
			}
		}
		if !applies {
			ignored = append(ignored, f.name)
		}
	}
	return ignored
}
