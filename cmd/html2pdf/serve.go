package main

import (
	"github.com/spf13/cobra"

	"github.com/alnah/go-html2pdf/internal/server"
)

// DefaultAddr is where `html2pdf serve` listens by default.
const DefaultAddr = "127.0.0.1:8080"

func newServeCmd(env *Environment, common *commonFlags) *cobra.Command {
	var addr string
	var workers int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve conversions over HTTP",
		Long: `Serve starts an HTTP API:

  POST /convert   multipart "document" part plus optional "stylesheet" parts;
                  query parameters engine, media, wait and base (http/https only).
                  Responds with application/pdf.
  GET  /healthz   liveness probe.

Engine settings come from --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSettings(env.Config, nil, nil)
			if err != nil {
				return err
			}

			ctx, stop := notifyContext(cmd.Context())
			defer stop()

			logger := loggerFromContext(ctx)
			conv := env.NewConverter(s.options(logger)...)
			srv := server.New(conv, logger, resolvePoolSize(workers))

			if !common.quiet {
				printSuccess(env.Stdout, "Serving on http://%s (Ctrl+C to stop)", addr)
			}
			return server.ListenAndServe(ctx, addr, srv.Routes(), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", DefaultAddr, "listen address")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel conversions (default: based on GOMAXPROCS)")
	return cmd
}
