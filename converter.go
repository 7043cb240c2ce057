package html2pdf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-html2pdf/internal/pipeline"
	"github.com/alnah/go-html2pdf/internal/process"
)

// Converter validates requests and runs them through the selected Strategy.
// A Converter holds no per-conversion state and is safe for concurrent use.
type Converter struct {
	logger     *log.Logger
	timeout    time.Duration
	settle     time.Duration
	driver     BrowserDriver
	browserBin string
	noSandbox  bool
	viewport   Viewport
	page       PageSettings
	boxBinary  string
	fontConfig string
	verify     bool
	runner     process.Runner
	launcher   BrowserLauncher
	verifier   pdfVerifier
	markdown   *pipeline.MarkdownRenderer
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithLogger, WithPage).
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger:   log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel, Prefix: "html2pdf"}),
		timeout:  DefaultTimeout,
		settle:   DefaultSettleDelay,
		driver:   DriverRod,
		viewport: DefaultViewport,
		page:     DefaultPageSettings(),
		verify:   true,
		runner:   process.ExecRunner{},
		verifier: pdfcpuVerifier{},
		markdown: pipeline.NewMarkdownRenderer(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Strategy returns the strategy for engine with the converter's settings.
func (c *Converter) Strategy(engine Engine) (Strategy, error) {
	switch engine {
	case EngineBox, EngineBoxFonts:
		return newBoxStrategy(engine, c.boxBinary, c.fontConfig, c.runner, c.logger), nil
	case EngineBrowser:
		launcher, err := c.browserLauncher()
		if err != nil {
			return nil, err
		}
		return &browserStrategy{
			launcher: launcher,
			viewport: c.viewport,
			page:     c.page,
			settle:   c.settle,
			logger:   c.logger,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
}

func (c *Converter) browserLauncher() (BrowserLauncher, error) {
	if c.launcher != nil {
		return c.launcher, nil
	}
	if err := c.viewport.Validate(); err != nil {
		return nil, err
	}
	if err := c.page.Validate(); err != nil {
		return nil, err
	}
	switch c.driver {
	case "", DriverRod:
		return &rodLauncher{bin: c.browserBin, noSandbox: c.noSandbox}, nil
	case DriverPlaywright:
		return &playwrightLauncher{noSandbox: c.noSandbox}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, c.driver)
}

// Convert renders req.Input to PDF.
// Validation failures return before anything is written. Engine failures
// return a *RenderError and leave no file at the output path.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := time.Now()

	engine, err := ParseEngine(string(req.Engine))
	if err != nil {
		return nil, err
	}
	media, err := ParseMediaType(string(req.MediaType))
	if err != nil {
		return nil, err
	}
	wait, err := ParseWaitCondition(string(req.Wait))
	if err != nil {
		return nil, err
	}
	strategy, err := c.Strategy(engine)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	paths, err := ResolvePaths(req)
	if err != nil {
		return nil, err
	}

	renderPaths := paths
	if pipeline.IsMarkdown(paths.Input) {
		htmlPath, cleanup, mdErr := c.markdown.RenderFile(ctx, paths.Input)
		if mdErr != nil {
			return nil, renderErr(engine, mdErr)
		}
		defer cleanup()
		renderPaths.Input = htmlPath
		c.logger.Debug("rendered markdown source", "input", paths.Input, "html", htmlPath)
	}

	rendered, err := strategy.Render(ctx, renderPaths, RenderOptions{
		Stylesheets: req.Stylesheets,
		MediaType:   media,
		Wait:        wait,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Input:    paths.Input,
		Output:   rendered.Output,
		Engine:   engine,
		Warnings: rendered.Warnings,
	}

	if c.verify {
		res.Pages, err = verifyOutput(c.verifier, engine, rendered.Output)
		if err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	c.logger.Info("converted", "input", res.Input, "output", res.Output, "engine", engine, "pages", res.Pages, "duration", res.Duration.Round(time.Millisecond))
	return res, nil
}
