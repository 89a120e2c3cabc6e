// this program analyzes music-market opportunity using data from spotify.
//
// 'analyze' collects playlists and tracks for each configured market,
// flattens them to csv, scores the market, and writes a json report.
// 'dashboard' renders the latest report as a static html page, and
// 'history' lists past runs from the archive database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"marketscope/sigctx"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var usage = strings.TrimSpace(`
usage: marketscope $cmd
valid $cmd are 'analyze', 'dashboard', 'history'
for help: marketscope $cmd -help
`)

func run() error {
	ctx := sigctx.New()

	if len(os.Args) < 2 {
		return errors.New(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "analyze":
		return analyze(ctx, args)

	case "dashboard":
		return dashboard(ctx, args)

	case "history":
		return history(ctx, args)

	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}
