package data

// Playlist is a playlist surfaced by a market-scoped search, with the tracks
// we fetched for it. Tracks keep playlist order.
type Playlist struct {
	SpotifyID   string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Followers   int64  `json:"followers"`
	Market      string `json:"market"`

	Tracks []Track `gorm:"-" json:"tracks"`
}

// PlaylistTrack represents a many-to-many relationship between playlists and
// tracks in the run archive. Position preserves playlist order.
type PlaylistTrack struct {
	PlaylistSpotifyID string
	TrackSpotifyID    string
	Position          int64
}
