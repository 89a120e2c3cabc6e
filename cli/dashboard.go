package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"marketscope/config"
	dash "marketscope/dashboard"
	"marketscope/subcmd"
)

func dashboard(_ context.Context, args []string) error {
	subcmd := subcmd.New("dashboard", "render the latest report for a market as a static html page")
	subcmd.SetArg("market", "string", "market code, like 'IN' (required)")
	out := subcmd.String("out", "", "output path (default: outputs/<market>_dashboard.html)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	if subcmd.NArg() != 1 {
		subcmd.Usage()
		return fmt.Errorf("dashboard takes exactly one market code")
	}
	market := strings.ToUpper(subcmd.Arg(0))
	if _, ok := config.Markets[market]; !ok {
		return fmt.Errorf("unknown market '%s'", market)
	}

	reportPath, err := dash.LatestReport(config.AnalyticsDir, market)
	if err != nil {
		return err
	}

	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(config.OutputDir, fmt.Sprintf("%s_dashboard.html", market))
	}
	if err := dash.Render(reportPath, outPath); err != nil {
		return err
	}

	fmt.Printf("dashboard for %s written to %s\n", market, outPath)
	return nil
}
