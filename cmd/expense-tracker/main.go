package main

import (
	"context"
	"os"

	"expensetracker/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
