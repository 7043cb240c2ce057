package main

import (
	"context"
	"os"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes: 0 when every input converted, 1 otherwise.
const (
	ExitSuccess = 0
	ExitGeneral = 1
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], DefaultEnv()))
}
