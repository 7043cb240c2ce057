package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/hints"
)

// execute runs the CLI with args and returns the process exit code.
func execute(ctx context.Context, args []string, env *Environment) int {
	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		// Batch and doctor print their own failures.
		if !errors.Is(err, errConversionsFailed) && !errors.Is(err, errDoctorFailed) {
			printError(env.Stderr, "Error: %v%s", err, hintFor(err, nil))
		}
		return ExitGeneral
	}
	return ExitSuccess
}

// newRootCmd builds the command tree. Converting is the root action, so
// `html2pdf page.html` needs no subcommand.
func newRootCmd(env *Environment) *cobra.Command {
	var common commonFlags
	var flags convertFlags

	root := &cobra.Command{
		Use:   "html2pdf [flags] <input>...",
		Short: "Convert HTML documents to PDF",
		Long: `html2pdf converts HTML (or Markdown) documents to PDF with one of three engines:

  box        CSS box-layout renderer (WeasyPrint)
  box-fonts  box renderer with shared font configuration and presentational hints
  browser    headless Chrome (go-rod or Playwright)`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(env.Stderr, logLevel(common.verbose, common.quiet))
			cmd.SetContext(withLogger(cmd.Context(), logger))

			// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
			// in which case Go runtime defaults apply.
			_, _ = maxprocs.Set(maxprocs.Logger(logger.Debugf))

			if common.config == "" {
				return nil
			}
			cfg, err := config.LoadConfig(common.config)
			if err != nil {
				if errors.Is(err, config.ErrConfigNotFound) {
					var searched []string
					if !config.IsFilePath(common.config) {
						searched = config.SearchPaths(common.config)
					}
					return fmt.Errorf("%w%s", err, hints.ForConfigNotFound(searched))
				}
				return err
			}
			env.Config = cfg
			logger.Debug("loaded config", "name", common.config)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, env, &common, &flags)
		},
	}

	addCommonFlags(root.PersistentFlags(), &common)
	addOutputFlags(root.Flags(), &flags.output)
	addEngineFlags(root.Flags(), &flags.engine)
	addBrowserFlags(root.Flags(), &flags.browser)
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(newDoctorCmd(env))
	root.AddCommand(newServeCmd(env, &common))
	root.AddCommand(newVersionCmd(env))

	return root
}

// runConvert converts every input argument.
func runConvert(cmd *cobra.Command, args []string, env *Environment, common *commonFlags, flags *convertFlags) error {
	if len(args) == 0 {
		return fmt.Errorf("%w (run html2pdf --help)", ErrNoInput)
	}

	s, err := resolveSettings(env.Config, cmd.Flags(), flags)
	if err != nil {
		return err
	}
	for _, name := range s.ignored {
		if !common.quiet {
			printWarning(env.Stderr, "--%s is ignored by the %s engine", name, s.engine)
		}
	}

	files, err := planFiles(args, flags.output.output, s.outputDir)
	if err != nil {
		return err
	}
	if common.verbose {
		printSettings(env.Stdout, s, files)
	}

	ctx, stop := notifyContext(cmd.Context())
	defer stop()

	logger := loggerFromContext(ctx)
	workers := resolvePoolSize(flags.engine.workers)
	logger.Debug("converting", "files", len(files), "workers", workers, "engine", s.engine)

	conv := env.NewConverter(s.options(logger)...)
	results := convertBatch(ctx, conv, workers, files, s)

	if failed := printResults(results, s, common.quiet, common.verbose, env); failed > 0 {
		return fmt.Errorf("%w: %d of %d", errConversionsFailed, failed, len(results))
	}
	return nil
}
