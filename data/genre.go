package data

// GenreRecord is the per-market aggregate for one genre label.
//
// Labels are case-normalized before aggregation, so "Bollywood" and
// "bollywood" land in the same record.
type GenreRecord struct {
	Market string `json:"market"`

	// like "filmi"
	Name string `json:"genre"`

	// number of (track, genre) rows carrying this label
	TrackCount int64 `json:"track_count"`

	// mean track popularity, in [0, 100]
	MeanPopularity float64 `json:"mean_popularity"`

	// number of distinct playlists the label appeared in
	PlaylistCount int64 `json:"playlist_count"`
}
