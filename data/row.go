package data

// Row is one flat tabular record: a (track, genre) pair with the context the
// analytics engine needs. These are what we write to the processed-data CSVs.
type Row struct {
	Market       string
	Genre        string
	PlaylistID   string
	PlaylistName string
	TrackID      string
	TrackName    string
	Artist       string
	ArtistCount  int64
	Popularity   int64
	Explicit     bool
	DurationMS   int64
}
