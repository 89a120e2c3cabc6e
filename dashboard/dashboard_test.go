package dashboard_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"marketscope/dashboard"
	"marketscope/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReport(t *testing.T, dir, name string, report *data.Report) string {
	t.Helper()
	bs, err := json.Marshal(report)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, bs, 0o644))
	return path
}

func sampleReport() *data.Report {
	return &data.Report{
		Market:      "IN",
		MarketName:  "India",
		GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Genres: []data.GenreRecord{
			{Market: "IN", Name: "bollywood", TrackCount: 40, MeanPopularity: 71.5, PlaylistCount: 8},
			{Market: "IN", Name: "filmi", TrackCount: 22, MeanPopularity: 64.0, PlaylistCount: 5},
		},
		Opportunity: &data.Opportunity{
			Score: 58.2,
			Factors: map[string]float64{
				"mean_popularity":  70.1,
				"genre_diversity":  40.0,
				"growth_potential": 60.0,
				"local_share":      50.0,
			},
		},
		Gaps: []data.Gap{
			{Genre: "k-pop", BaselinePopularity: 82, LocalPopularity: 0, Status: "missing"},
		},
		Summary: data.Summary{
			OpportunityScore: 58.2,
			TotalTracks:      60,
			UniqueGenres:     2,
			KeyGaps:          []string{"k-pop"},
		},
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	reportPath := writeReport(t, dir, "IN_insights_20260830_120000.json", sampleReport())
	outPath := filepath.Join(dir, "out", "IN_dashboard.html")

	require.NoError(t, dashboard.Render(reportPath, outPath))

	bs, err := os.ReadFile(outPath)
	require.NoError(t, err)
	html := string(bs)

	assert.Contains(t, html, "India music market")
	assert.Contains(t, html, "58.2")
	assert.Contains(t, html, `id="factors"`)
	assert.Contains(t, html, `id="genres"`)
	assert.Contains(t, html, `id="gaps"`)
	assert.Contains(t, html, "k-pop")
}

func TestRenderInsufficientData(t *testing.T) {
	report := sampleReport()
	report.Opportunity = nil
	report.Gaps = nil
	report.Summary = data.Summary{TotalTracks: 3, UniqueGenres: 1, InsufficientData: true}

	dir := t.TempDir()
	reportPath := writeReport(t, dir, "IN_insights_20260830_120000.json", report)
	outPath := filepath.Join(dir, "IN_dashboard.html")

	require.NoError(t, dashboard.Render(reportPath, outPath))

	bs, err := os.ReadFile(outPath)
	require.NoError(t, err)
	html := string(bs)

	assert.Contains(t, html, "Too few tracks")
	assert.NotContains(t, html, `id="factors"`)
	assert.NotContains(t, html, "Opportunity score")
}

func TestRenderMissingReport(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.html")
	err := dashboard.Render(filepath.Join(dir, "nope.json"), outPath)
	assert.Error(t, err)

	// a failed render must not leave a partial page behind
	_, err = os.Stat(outPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLatestReport(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, dir, "IN_insights_20260829_090000.json", sampleReport())
	newest := writeReport(t, dir, "IN_insights_20260830_120000.json", sampleReport())
	writeReport(t, dir, "JP_insights_20260830_130000.json", sampleReport())

	got, err := dashboard.LatestReport(dir, "IN")
	require.NoError(t, err)
	assert.Equal(t, newest, got)
}

func TestLatestReportMissing(t *testing.T) {
	_, err := dashboard.LatestReport(t.TempDir(), "IN")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
