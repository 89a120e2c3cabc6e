package pipeline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"marketscope/baseline"
	"marketscope/config"
	"marketscope/data"
	"marketscope/db"
	"marketscope/flatten"
	"marketscope/pipeline"
	"marketscope/spotify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/search":
			fmt.Fprint(w, `{"playlists":{"items":[
				{"id":"p1","name":"Top Hits India","followers":{"total":100}}
			]}}`)
		case "/playlists/p1/tracks":
			fmt.Fprint(w, `{"items":[
				{"track":{"id":"t1","name":"Song One","popularity":80,"duration_ms":200000,
					"album":{"name":"Album"},"artists":[{"id":"a1","name":"One"}]}},
				{"track":{"id":"t2","name":"Song Two","popularity":60,"duration_ms":180000,
					"album":{"name":"Album"},"artists":[{"id":"a2","name":"Two"}]}}
			]}`)
		case "/artists":
			fmt.Fprint(w, `{"artists":[
				{"id":"a1","name":"One","genres":["bollywood","filmi"],"followers":{"total":9}},
				{"id":"a2","name":"Two","genres":["pop"],"followers":{"total":2}}
			]}`)
		default:
			t.Errorf("unexpected path %s", req.URL.Path)
		}
	}))
}

func TestRunWritesArtifactsAndArchives(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokens.Close()
	api := newAPIServer(t)
	defer api.Close()

	spo := spotify.New("id", "secret", spotify.WithBaseURLs(api.URL, tokens.URL))

	dir := t.TempDir()
	archive, err := db.Open(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	defer archive.Close()

	cfg := config.DefaultAnalysis
	cfg.Clusters = 2
	cfg.MinSampleSize = 1

	base := baseline.Baseline{"k-pop": 85, "pop": 70}

	p := pipeline.New(spo, archive, base, cfg)
	p.ProcessedDataDir = filepath.Join(dir, "processed")
	p.AnalyticsDir = filepath.Join(dir, "analytics")

	market := config.Market{
		Name: "India", PlaylistLimit: 5, TrackLimit: 30,
		Size: 1000, Competition: 0.5,
		LocalGenres: []string{"bollywood", "filmi"},
	}
	report, err := p.Run(context.Background(), "IN", market)
	require.NoError(t, err)

	// csv artifact: 2 tracks with genre sets {bollywood, filmi} and {pop}
	csvs, err := filepath.Glob(filepath.Join(p.ProcessedDataDir, "IN_processed_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvs, 1)
	rows, err := flatten.ReadCSV(csvs[0])
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// report artifact round-trips
	reports, err := filepath.Glob(filepath.Join(p.AnalyticsDir, "IN_insights_*.json"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	bs, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	var onDisk data.Report
	require.NoError(t, json.Unmarshal(bs, &onDisk))
	assert.Equal(t, "IN", onDisk.Market)
	assert.Equal(t, report.Summary.OpportunityScore, onDisk.Summary.OpportunityScore)

	// the run and its genre records are archived
	runs, err := archive.Runs("IN", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].RowCount)
	assert.Equal(t, reports[0], runs[0].ReportPath)

	records, err := archive.GenreRecords("IN")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRunNoPlaylists(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokens.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"playlists":{"items":[]}}`)
	}))
	defer api.Close()

	spo := spotify.New("id", "secret", spotify.WithBaseURLs(api.URL, tokens.URL))
	p := pipeline.New(spo, nil, nil, config.DefaultAnalysis)
	p.ProcessedDataDir = t.TempDir()
	p.AnalyticsDir = t.TempDir()

	_, err := p.Run(context.Background(), "IN", config.Markets["IN"])
	assert.ErrorContains(t, err, "no playlists")
}
