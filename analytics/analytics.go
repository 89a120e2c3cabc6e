// Package analytics computes the per-market report: genre aggregation,
// k-means genre clustering, the weighted opportunity score, and gap analysis
// against a baseline.
package analytics

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"marketscope/config"
	"marketscope/data"
)

// ErrInsufficientData means a market had fewer rows than the configured
// minimum sample size. The market still gets a report listing its recorded
// genres, just without clusters or a score.
var ErrInsufficientData = errors.New("not enough rows to score market")

func New(cfg config.Analysis) *Engine {
	return &Engine{cfg: cfg}
}

type Engine struct {
	cfg config.Analysis
}

// Report builds the full market report from flat rows. Insufficient data is
// recovered locally: the report still carries the genre aggregation.
func (e *Engine) Report(code string, market config.Market, rows []data.Row, baseline map[string]float64) (*data.Report, error) {
	records := Aggregate(rows)

	report := &data.Report{
		Market:      code,
		MarketName:  market.Name,
		GeneratedAt: time.Now().UTC(),
		Genres:      records,
		Gaps:        e.Gaps(records, baseline),
	}

	opportunity, err := e.Opportunity(rows, records, market)
	if errors.Is(err, ErrInsufficientData) {
		log.Printf("market %s: %v; emitting genre listing only", code, err)
		report.Summary = data.Summary{
			TotalTracks:      countTracks(rows),
			UniqueGenres:     int64(len(records)),
			KeyGaps:          keyGaps(report.Gaps),
			InsufficientData: true,
		}
		return report, nil
	} else if err != nil {
		return nil, err
	}

	report.Opportunity = opportunity
	report.Clusters = e.Clusters(records)
	report.Summary = data.Summary{
		OpportunityScore: opportunity.Score,
		TotalTracks:      opportunity.Metrics.TotalTracks,
		UniqueGenres:     opportunity.Metrics.UniqueGenres,
		KeyGaps:          keyGaps(report.Gaps),
	}
	return report, nil
}

// Aggregate rolls flat rows up into one record per genre label, ordered by
// track count (then name, so output is stable).
func Aggregate(rows []data.Row) []data.GenreRecord {
	type stats struct {
		count     int64
		sum       int64
		playlists map[string]bool
	}
	byGenre := map[string]*stats{}
	var market string
	for _, row := range rows {
		market = row.Market
		s, ok := byGenre[row.Genre]
		if !ok {
			s = &stats{playlists: map[string]bool{}}
			byGenre[row.Genre] = s
		}
		s.count++
		s.sum += row.Popularity
		s.playlists[row.PlaylistID] = true
	}

	records := make([]data.GenreRecord, 0, len(byGenre))
	for genre, s := range byGenre {
		records = append(records, data.GenreRecord{
			Market:         market,
			Name:           genre,
			TrackCount:     s.count,
			MeanPopularity: float64(s.sum) / float64(s.count),
			PlaylistCount:  int64(len(s.playlists)),
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].TrackCount != records[j].TrackCount {
			return records[i].TrackCount > records[j].TrackCount
		}
		return records[i].Name < records[j].Name
	})
	return records
}

// Opportunity computes the weighted market score. Every factor is clamped to
// [0, 1] and the weights are normalized by their sum, so the score is in
// [0, 100] by construction.
func (e *Engine) Opportunity(rows []data.Row, records []data.GenreRecord, market config.Market) (*data.Opportunity, error) {
	if len(rows) < e.cfg.MinSampleSize {
		return nil, fmt.Errorf("%d rows, need %d: %w", len(rows), e.cfg.MinSampleSize, ErrInsufficientData)
	}

	totalTracks := countTracks(rows)

	var popularitySum int64
	var localRows int64
	for _, row := range rows {
		popularitySum += row.Popularity
		if isLocal(row.Genre, market.LocalGenres) {
			localRows++
		}
	}
	meanPopularity := float64(popularitySum) / float64(len(rows))

	popularity := clamp01(meanPopularity / 100)
	diversity := clamp01(float64(len(records)) / float64(e.cfg.GenreUniverse))
	penetration := clamp01(float64(totalTracks) / float64(market.Size))
	growth := clamp01((1 - penetration) * (1 - market.Competition))
	localShare := clamp01(float64(localRows) / float64(len(rows)))

	w := normalized(e.cfg.Weights)
	score := 100 * (w.Popularity*popularity +
		w.Diversity*diversity +
		w.Growth*growth +
		w.LocalShare*localShare)

	return &data.Opportunity{
		Score: score,
		Factors: map[string]float64{
			"mean_popularity":  meanPopularity,
			"genre_diversity":  diversity * 100,
			"growth_potential": growth * 100,
			"local_share":      localShare * 100,
		},
		Metrics: data.Metrics{
			TotalRows:         int64(len(rows)),
			TotalTracks:       totalTracks,
			UniqueGenres:      int64(len(records)),
			MarketPenetration: penetration * 100,
		},
	}, nil
}

// Gaps flags genres that are healthy in the baseline but absent or weak
// locally. Two markets with identical genre popularity produce no gaps,
// since LocalThreshold sits below BaselineThreshold.
func (e *Engine) Gaps(records []data.GenreRecord, baseline map[string]float64) []data.Gap {
	local := make(map[string]float64, len(records))
	for _, record := range records {
		local[record.Name] = record.MeanPopularity
	}

	genres := make([]string, 0, len(baseline))
	for genre := range baseline {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	var gaps []data.Gap
	for _, genre := range genres {
		basePopularity := baseline[genre]
		if basePopularity < e.cfg.BaselineThreshold {
			continue
		}
		localPopularity, present := local[genre]
		var status string
		switch {
		case !present:
			status = "missing"
		case localPopularity < e.cfg.LocalThreshold:
			status = "underrepresented"
		default:
			continue
		}
		gaps = append(gaps, data.Gap{
			Genre:              genre,
			BaselinePopularity: basePopularity,
			LocalPopularity:    localPopularity,
			Status:             status,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].BaselinePopularity > gaps[j].BaselinePopularity
	})
	return gaps
}

func keyGaps(gaps []data.Gap) []string {
	var key []string
	for _, gap := range gaps {
		key = append(key, gap.Genre)
		if len(key) == 5 {
			break
		}
	}
	return key
}

func countTracks(rows []data.Row) int64 {
	tracks := map[string]bool{}
	for _, row := range rows {
		tracks[row.TrackID] = true
	}
	return int64(len(tracks))
}

func isLocal(genre string, localGenres []string) bool {
	for _, local := range localGenres {
		if strings.Contains(genre, local) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalized(w config.Weights) config.Weights {
	sum := w.Popularity + w.Diversity + w.Growth + w.LocalShare
	if sum == 0 {
		return config.Weights{Popularity: 1}
	}
	return config.Weights{
		Popularity: w.Popularity / sum,
		Diversity:  w.Diversity / sum,
		Growth:     w.Growth / sum,
		LocalShare: w.LocalShare / sum,
	}
}
