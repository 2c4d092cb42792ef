// Command bibparse parses BibTeX databases and renders their entries.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/drgo/bibparse/internal/cli"
)

var version = "devel"

func main() {
	os.Exit(doMain())
}

func doMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cli.Version = version
	return cli.Execute(ctx)
}
