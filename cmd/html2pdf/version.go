package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd(env *Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printKeyValue(env.Stdout, "html2pdf", Version)
			printKeyValue(env.Stdout, "go", runtime.Version())
			printKeyValue(env.Stdout, "platform", runtime.GOOS+"/"+runtime.GOARCH)
			if rev := vcsRevision(); rev != "" {
				printKeyValue(env.Stdout, "commit", rev)
			}
		},
	}
}

// vcsRevision returns the commit embedded by the Go toolchain, if any.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return ""
}
