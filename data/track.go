package data

// Track is one track pulled out of a market playlist.
//
// Genres is the union of the genre tags of the track's listed artists,
// case-normalized. Spotify doesn't tag tracks directly, so an untagged
// artist roster means an untagged track.
type Track struct {
	SpotifyID  string `json:"id"`
	Name       string `json:"name"`
	AlbumName  string `json:"album"`
	Popularity int64  `json:"popularity"`
	Explicit   bool   `json:"explicit"`
	DurationMS int64  `json:"duration_ms"`

	Artists []Artist `gorm:"-" json:"artists"`
	Genres  []string `gorm:"-" json:"genres"`
}

// PrimaryArtist returns the first listed artist, which Spotify orders by
// billing.
func (t Track) PrimaryArtist() (Artist, bool) {
	if len(t.Artists) == 0 {
		return Artist{}, false
	}
	return t.Artists[0], true
}

// TrackArtist represents a many-to-many relationship between tracks and
// artists in the run archive.
type TrackArtist struct {
	TrackSpotifyID  string
	ArtistSpotifyID string
}
