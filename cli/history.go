package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"marketscope/config"
	"marketscope/db"
	"marketscope/subcmd"

	"github.com/olekukonko/tablewriter"
)

func history(_ context.Context, args []string) error {
	subcmd := subcmd.New("history", "list archived runs for a market, newest first")
	subcmd.SetArg("market", "string", "market code, like 'IN' (required)")
	count := subcmd.Int("count", 10, "number of runs to list")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	if subcmd.NArg() != 1 {
		subcmd.Usage()
		return fmt.Errorf("history takes exactly one market code")
	}
	market := strings.ToUpper(subcmd.Arg(0))
	if _, ok := config.Markets[market]; !ok {
		return fmt.Errorf("unknown market '%s'", market)
	}

	archive, err := db.Open(config.ArchivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	runs, err := archive.Runs(market, *count)
	if err != nil {
		return fmt.Errorf("error listing runs for '%s': %w", market, err)
	}
	if len(runs) == 0 {
		fmt.Printf("no archived runs for '%s'\n", market)
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Ran at", "Rows", "Genres", "Score", "Report"})
	for _, run := range runs {
		table.Append([]string{
			run.RanAt.Format("2006-01-02 15:04"),
			strconv.FormatInt(run.RowCount, 10),
			strconv.FormatInt(run.GenreCount, 10),
			fmt.Sprintf("%.1f", run.OpportunityScore),
			run.ReportPath,
		})
	}
	table.Render()

	return nil
}
