// Package pipeline runs one market end to end: collect playlists and tracks,
// flatten to CSV, archive, analyze, and write the report JSON.
//
// Stages run sequentially and a failed stage aborts the run; artifacts from
// completed stages are left on disk as-is.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"marketscope/analytics"
	"marketscope/baseline"
	"marketscope/config"
	"marketscope/data"
	"marketscope/db"
	"marketscope/flatten"
	"marketscope/spotify"

	"github.com/olekukonko/tablewriter"
)

func New(spo *spotify.Client, archive *db.DB, base baseline.Baseline, cfg config.Analysis) *Pipeline {
	return &Pipeline{
		spo:      spo,
		archive:  archive,
		engine:   analytics.New(cfg),
		baseline: base,

		ProcessedDataDir: config.ProcessedDataDir,
		AnalyticsDir:     config.AnalyticsDir,
	}
}

type Pipeline struct {
	spo      *spotify.Client
	archive  *db.DB
	engine   *analytics.Engine
	baseline baseline.Baseline

	ProcessedDataDir string
	AnalyticsDir     string
}

// Run executes the full pipeline for one market and returns the report it
// wrote.
func (p *Pipeline) Run(ctx context.Context, code string, market config.Market) (*data.Report, error) {
	runAt := time.Now().UTC()
	stamp := runAt.Format("20060102_150405")

	log.Printf("starting analysis for market %s (%s)", code, market.Name)

	playlists, err := p.spo.SearchPlaylists(ctx, code, market.PlaylistLimit)
	if err != nil {
		return nil, fmt.Errorf("error searching playlists for '%s': %w", code, err)
	}
	if len(playlists) == 0 {
		return nil, fmt.Errorf("no playlists found for market '%s'", code)
	}

	for i := range playlists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tracks, err := p.spo.FetchPlaylistTracks(ctx, playlists[i].SpotifyID, market.TrackLimit)
		if err != nil {
			return nil, fmt.Errorf("error fetching tracks for playlist '%s': %w", playlists[i].SpotifyID, err)
		}
		playlists[i].Tracks = tracks
	}
	log.Printf("%s: collected %d playlists", code, len(playlists))

	rows := flatten.Flatten(code, playlists)
	csvPath := filepath.Join(p.ProcessedDataDir, fmt.Sprintf("%s_processed_%s.csv", code, stamp))
	if err := flatten.WriteCSV(csvPath, rows); err != nil {
		return nil, err
	}
	log.Printf("%s: %d rows written to %s", code, len(rows), csvPath)

	report, err := p.engine.Report(code, market, rows, p.baseline)
	if err != nil {
		return nil, err
	}

	reportPath := filepath.Join(p.AnalyticsDir, fmt.Sprintf("%s_insights_%s.json", code, stamp))
	if err := writeReport(reportPath, report); err != nil {
		return nil, err
	}
	log.Printf("%s: report written to %s", code, reportPath)

	if p.archive != nil {
		if err := p.archive.ReplaceMarket(code, playlists, report.Genres); err != nil {
			return nil, err
		}
		if err := p.archive.InsertRun(&data.Run{
			Market:           code,
			RanAt:            runAt,
			RowCount:         int64(len(rows)),
			GenreCount:       int64(len(report.Genres)),
			OpportunityScore: report.Summary.OpportunityScore,
			ReportPath:       reportPath,
		}); err != nil {
			return nil, err
		}
	}

	printSummary(report)
	return report, nil
}

func writeReport(path string, report *data.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating dir for '%s': %w", path, err)
	}
	bs, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding report for '%s': %w", report.Market, err)
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return fmt.Errorf("error writing report to '%s': %w", path, err)
	}
	return nil
}

func printSummary(report *data.Report) {
	fmt.Printf("\nmarket %s (%s)\n", report.Market, report.MarketName)
	if report.Summary.InsufficientData {
		fmt.Printf("not enough data to score; %d genres recorded\n", len(report.Genres))
	} else {
		fmt.Printf("opportunity score: %.1f\n", report.Summary.OpportunityScore)
	}
	if len(report.Summary.KeyGaps) > 0 {
		fmt.Printf("key gaps: %s\n", strings.Join(report.Summary.KeyGaps, ", "))
	}

	genres := report.Genres
	if len(genres) > 10 {
		genres = genres[:10]
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Genre", "Tracks", "Popularity", "Playlists"})
	for _, record := range genres {
		table.Append([]string{
			record.Name,
			strconv.FormatInt(record.TrackCount, 10),
			fmt.Sprintf("%.1f", record.MeanPopularity),
			strconv.FormatInt(record.PlaylistCount, 10),
		})
	}
	table.Render()
}
