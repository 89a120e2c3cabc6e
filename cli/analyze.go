package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"marketscope/baseline"
	"marketscope/config"
	"marketscope/db"
	"marketscope/pipeline"
	"marketscope/readthrough"
	"marketscope/setflag"
	"marketscope/spotify"
	"marketscope/subcmd"
)

func analyze(ctx context.Context, args []string) error {
	var codes []string
	for code := range config.Markets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	subcmd := subcmd.New("analyze", "collect, flatten, and score each configured market")
	markets := setflag.New(codes...)
	subcmd.Var(markets, "markets", "comma-separated market codes to analyze (default: all)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	if selected := markets.List(); len(selected) > 0 {
		sort.Strings(selected)
		codes = selected
	}

	clientID, clientSecret, err := config.Credentials()
	if err != nil {
		return err
	}

	archive, err := db.Open(config.ArchivePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	cache := readthrough.New(config.RawDataDir, "spotify")
	spo := spotify.New(clientID, clientSecret, spotify.WithCache(cache))

	base, err := baseline.Fetch()
	if err != nil {
		log.Printf("baseline fetch failed, skipping gap analysis: %s", err)
		base = nil
	}

	p := pipeline.New(spo, archive, base, config.DefaultAnalysis)
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.Run(ctx, code, config.Markets[code]); err != nil {
			return fmt.Errorf("analyze error for '%s': %w", code, err)
		}
	}

	return nil
}
