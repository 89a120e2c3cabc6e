// Package config is the source-level configuration surface: which markets to
// analyze, how to weigh the opportunity score, and where artifacts land.
// There are deliberately no runtime flags for any of this; edit the tables
// here instead. Credentials are the one exception, read from the environment
// (or a local .env file).
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

// Artifact layout. All paths are relative to the working directory.
const (
	RawDataDir       = "collected_data/raw_data"
	ProcessedDataDir = "collected_data/processed_data"
	AnalyticsDir     = "market_analytics"
	OutputDir        = "outputs"
	ArchivePath      = "marketscope.db"
)

// Market describes one market to collect and score.
type Market struct {
	Name string

	// how many playlists to collect, and how many tracks per playlist
	PlaylistLimit int
	TrackLimit    int

	// rough addressable audience, for the penetration metric
	Size int64

	// in [0, 1]; higher means a more crowded market
	Competition float64

	// genre labels counted as local content (matched as substrings
	// against normalized labels)
	LocalGenres []string
}

// Markets is the set of markets `analyze` runs against.
var Markets = map[string]Market{
	"IN": {
		Name:          "India",
		PlaylistLimit: 20,
		TrackLimit:    30,
		Size:          1_000_000,
		Competition:   0.6,
		LocalGenres:   []string{"bollywood", "filmi", "indian", "bhangra", "punjabi", "hindi", "desi"},
	},
	"JP": {
		Name:          "Japan",
		PlaylistLimit: 20,
		TrackLimit:    30,
		Size:          800_000,
		Competition:   0.8,
		LocalGenres:   []string{"j-pop", "j-rock", "anime", "japanese", "city pop"},
	},
}

// Weights are the opportunity-score weights. They're normalized by their sum
// before use, so the score stays in [0, 100] even if an edit here doesn't
// add up to exactly 1.
type Weights struct {
	Popularity float64
	Diversity  float64
	Growth     float64
	LocalShare float64
}

// Analysis holds the analytics-engine parameters.
type Analysis struct {
	// k for genre clustering
	Clusters int

	// seed for centroid initialization; fixed so runs are reproducible
	Seed int64

	// markets with fewer rows than this are reported but not scored
	MinSampleSize int

	Weights Weights

	// diversity denominator: seeing this many distinct genres counts as
	// fully diverse
	GenreUniverse int

	// a genre above BaselineThreshold popularity in the baseline but
	// absent, or below LocalThreshold, locally is a gap
	BaselineThreshold float64
	LocalThreshold    float64
}

var DefaultAnalysis = Analysis{
	Clusters:      5,
	Seed:          42,
	MinSampleSize: 20,
	Weights: Weights{
		Popularity: 0.3,
		Diversity:  0.2,
		Growth:     0.3,
		LocalShare: 0.2,
	},
	GenreUniverse:     50,
	BaselineThreshold: 60,
	LocalThreshold:    25,
}

// Credentials loads SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET, reading a
// local .env file first if one exists.
func Credentials() (clientID, clientSecret string, err error) {
	_ = godotenv.Load()

	clientID = os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return "", "", errors.New("must set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET (see .env)")
	}
	return clientID, clientSecret, nil
}
