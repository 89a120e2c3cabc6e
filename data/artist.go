package data

// Artist holds an artist referenced by a collected track, along with the
// genre tags from Spotify's artist endpoint.
type Artist struct {
	SpotifyID string   `json:"id"`
	Name      string   `json:"name"`
	Followers int64    `json:"followers"`
	Genres    []string `gorm:"-" json:"genres"`
}
