package analytics_test

import (
	"fmt"
	"testing"

	"marketscope/analytics"
	"marketscope/config"
	"marketscope/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMarket = config.Market{
	Name:        "India",
	Size:        1_000_000,
	Competition: 0.6,
	LocalGenres: []string{"bollywood", "filmi"},
}

func rowsFor(market string, genrePopularity map[string]int64, perGenre int) []data.Row {
	var rows []data.Row
	track := 0
	for genre, popularity := range genrePopularity {
		for i := 0; i < perGenre; i++ {
			track++
			rows = append(rows, data.Row{
				Market:     market,
				Genre:      genre,
				PlaylistID: fmt.Sprintf("p%d", i%2),
				TrackID:    fmt.Sprintf("t%d", track),
				Popularity: popularity,
			})
		}
	}
	return rows
}

func TestAggregate(t *testing.T) {
	rows := []data.Row{
		{Market: "IN", Genre: "filmi", PlaylistID: "p1", TrackID: "t1", Popularity: 80},
		{Market: "IN", Genre: "filmi", PlaylistID: "p2", TrackID: "t2", Popularity: 60},
		{Market: "IN", Genre: "pop", PlaylistID: "p1", TrackID: "t1", Popularity: 80},
	}

	records := analytics.Aggregate(rows)
	require.Len(t, records, 2)

	assert.Equal(t, "filmi", records[0].Name)
	assert.Equal(t, int64(2), records[0].TrackCount)
	assert.Equal(t, 70.0, records[0].MeanPopularity)
	assert.Equal(t, int64(2), records[0].PlaylistCount)

	assert.Equal(t, "pop", records[1].Name)
	assert.Equal(t, int64(1), records[1].PlaylistCount)
}

func TestOpportunityScoreBounds(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	tables := map[string][]data.Row{
		"modest": rowsFor("IN", map[string]int64{"filmi": 50, "pop": 40, "rock": 30}, 10),
		"maxed":  rowsFor("IN", map[string]int64{"bollywood": 100, "filmi": 100}, 50),
		"floor":  rowsFor("IN", map[string]int64{"ambient": 0}, 25),
	}
	for name, rows := range tables {
		records := analytics.Aggregate(rows)
		opportunity, err := engine.Opportunity(rows, records, testMarket)
		require.NoError(t, err, name)
		assert.GreaterOrEqual(t, opportunity.Score, 0.0, name)
		assert.LessOrEqual(t, opportunity.Score, 100.0, name)
	}
}

func TestOpportunityScoreBoundedWithMiscalibratedWeights(t *testing.T) {
	cfg := config.DefaultAnalysis
	// weights that don't sum to 1 get normalized rather than trusted
	cfg.Weights = config.Weights{Popularity: 3, Diversity: 2, Growth: 3, LocalShare: 2}
	engine := analytics.New(cfg)

	rows := rowsFor("IN", map[string]int64{"bollywood": 100, "filmi": 95}, 50)
	opportunity, err := engine.Opportunity(rows, analytics.Aggregate(rows), testMarket)
	require.NoError(t, err)
	assert.LessOrEqual(t, opportunity.Score, 100.0)
}

func TestOpportunityInsufficientData(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	rows := rowsFor("IN", map[string]int64{"filmi": 50}, 3)
	_, err := engine.Opportunity(rows, analytics.Aggregate(rows), testMarket)
	assert.ErrorIs(t, err, analytics.ErrInsufficientData)
}

func TestGapsIdenticalMarketsEmpty(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	rows := rowsFor("IN", map[string]int64{"filmi": 80, "pop": 70, "ambient": 10}, 10)
	records := analytics.Aggregate(rows)

	baseline := map[string]float64{}
	for _, record := range records {
		baseline[record.Name] = record.MeanPopularity
	}

	assert.Empty(t, engine.Gaps(records, baseline))
}

func TestGapsMissingAndUnderrepresented(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	rows := rowsFor("IN", map[string]int64{"pop": 70, "anime": 10}, 10)
	records := analytics.Aggregate(rows)

	baseline := map[string]float64{
		"k-pop": 90, // absent locally
		"anime": 75, // present but weak locally
		"pop":   80, // healthy locally
		"noise": 20, // below the baseline threshold, ignored
	}

	gaps := engine.Gaps(records, baseline)
	require.Len(t, gaps, 2)

	assert.Equal(t, "k-pop", gaps[0].Genre)
	assert.Equal(t, "missing", gaps[0].Status)
	assert.Equal(t, "anime", gaps[1].Genre)
	assert.Equal(t, "underrepresented", gaps[1].Status)
	assert.Equal(t, 10.0, gaps[1].LocalPopularity)
}

func TestClustersDeterministic(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	genres := map[string]int64{}
	for i := 0; i < 20; i++ {
		genres[fmt.Sprintf("genre-%02d", i)] = int64(i * 5)
	}
	rows := rowsFor("IN", genres, 1+len(genres)%3)
	records := analytics.Aggregate(rows)

	first := engine.Clusters(records)
	second := engine.Clusters(records)
	assert.Equal(t, first, second)

	total := 0
	for _, cluster := range first {
		total += len(cluster.Genres)
	}
	assert.Equal(t, len(records), total, "clusters must partition the records")
	assert.LessOrEqual(t, len(first), config.DefaultAnalysis.Clusters)
}

func TestClustersFewerRecordsThanK(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	rows := rowsFor("IN", map[string]int64{"filmi": 80, "pop": 20}, 5)
	clusters := engine.Clusters(analytics.Aggregate(rows))

	total := 0
	for _, cluster := range clusters {
		total += len(cluster.Genres)
	}
	assert.Equal(t, 2, total)
}

func TestReportInsufficientDataStillListsGenres(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	rows := rowsFor("IN", map[string]int64{"filmi": 50, "pop": 30}, 2)
	report, err := engine.Report("IN", testMarket, rows, map[string]float64{"k-pop": 90})
	require.NoError(t, err)

	assert.True(t, report.Summary.InsufficientData)
	assert.Nil(t, report.Opportunity)
	assert.Empty(t, report.Clusters)
	assert.Len(t, report.Genres, 2)
	assert.Equal(t, []string{"k-pop"}, report.Summary.KeyGaps)
}

func TestReportFull(t *testing.T) {
	engine := analytics.New(config.DefaultAnalysis)

	rows := rowsFor("IN", map[string]int64{"filmi": 80, "bollywood": 75, "pop": 60, "rock": 20}, 10)
	report, err := engine.Report("IN", testMarket, rows, map[string]float64{})
	require.NoError(t, err)

	require.NotNil(t, report.Opportunity)
	assert.Equal(t, report.Opportunity.Score, report.Summary.OpportunityScore)
	assert.NotEmpty(t, report.Clusters)
	assert.Equal(t, "IN", report.Market)
	assert.Equal(t, int64(4), report.Summary.UniqueGenres)
}
