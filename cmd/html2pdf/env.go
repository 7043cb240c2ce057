package main

import (
	"context"
	"io"
	"os"
	"time"

	html2pdf "github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
)

// Converter is the part of html2pdf.Converter the CLI needs.
type Converter interface {
	Convert(ctx context.Context, req html2pdf.Request) (*html2pdf.Result, error)
}

// Compile-time interface implementation check.
var _ Converter = (*html2pdf.Converter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	Config       *config.Config // Loaded once in the root pre-run, shared by subcommands
	NewConverter func(opts ...html2pdf.Option) Converter
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
		NewConverter: func(opts ...html2pdf.Option) Converter {
			return html2pdf.NewConverter(opts...)
		},
	}
}
