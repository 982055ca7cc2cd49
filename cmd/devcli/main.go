// Command devcli prunes unused Docker resources and empty S3 buckets, and
// manages S3 buckets directly.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kstenerud/devcli/internal/cli"
)

// Overridden with -ldflags -X at build time; shown by `devcli version`.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, version, commit, date)
}
