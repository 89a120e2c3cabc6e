package data

import "time"

// Report is the final per-market artifact, written as JSON under the
// analytics directory and consumed by the dashboard generator.
type Report struct {
	Market      string    `json:"market_code"`
	MarketName  string    `json:"market_name"`
	GeneratedAt time.Time `json:"generated_at"`

	Genres      []GenreRecord `json:"genres"`
	Clusters    []Cluster     `json:"genre_clusters"`
	Opportunity *Opportunity  `json:"opportunity_analysis,omitempty"`
	Gaps        []Gap         `json:"gap_analysis"`

	Summary Summary `json:"summary"`
}

// Cluster is one group of genres with similar count/popularity/spread
// profiles, ordered by descending mean popularity of its members.
type Cluster struct {
	ID     int           `json:"cluster"`
	Genres []GenreRecord `json:"genres"`
}

// Opportunity is the weighted market-opportunity breakdown. Score is in
// [0, 100] by construction: each factor is in [0, 1] and the weights sum
// to 1.
type Opportunity struct {
	Score   float64            `json:"opportunity_score"`
	Factors map[string]float64 `json:"contributing_factors"`
	Metrics Metrics            `json:"market_metrics"`
}

// Metrics are the raw counts behind the opportunity factors.
type Metrics struct {
	TotalRows         int64   `json:"total_rows"`
	TotalTracks       int64   `json:"total_tracks"`
	UniqueGenres      int64   `json:"unique_genres"`
	MarketPenetration float64 `json:"market_penetration"`
}

// Gap flags a genre that is healthy in the baseline but absent or weak in
// the target market.
type Gap struct {
	Genre              string  `json:"genre"`
	BaselinePopularity float64 `json:"baseline_popularity"`
	LocalPopularity    float64 `json:"local_popularity"`

	// "missing" when the genre has no local rows at all,
	// "underrepresented" when it's below the local threshold
	Status string `json:"status"`
}

// Summary is the headline view the dashboard cards and the CLI table pull
// from.
type Summary struct {
	OpportunityScore float64  `json:"opportunity_score"`
	TotalTracks      int64    `json:"total_tracks"`
	UniqueGenres     int64    `json:"unique_genres"`
	KeyGaps          []string `json:"key_gaps"`

	// set when the market had too few rows to score
	InsufficientData bool `json:"insufficient_data,omitempty"`
}

// Run is one archived pipeline invocation.
type Run struct {
	ID               int64
	Market           string
	RanAt            time.Time
	RowCount         int64
	GenreCount       int64
	OpportunityScore float64
	ReportPath       string
}
