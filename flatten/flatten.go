// Package flatten turns nested playlist data into flat (track, genre) rows
// and handles the processed-data CSVs.
package flatten

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"marketscope/data"
)

// ErrSchema means an upstream record is missing a required field. Bad records
// are skipped and logged, never fatal.
var ErrSchema = errors.New("record missing required field")

// Flatten produces one row per (track, genre) pair across all playlists. A
// track with uniform single-genre tags contributes exactly one row; a track
// whose genre union is empty contributes none, since untagged tracks are
// excluded from genre aggregation.
func Flatten(market string, playlists []data.Playlist) []data.Row {
	var rows []data.Row
	for _, playlist := range playlists {
		for _, track := range playlist.Tracks {
			trackRows, err := rowsForTrack(market, playlist, track)
			if err != nil {
				log.Printf("skipping track '%s' in playlist '%s': %v", track.SpotifyID, playlist.Name, err)
				continue
			}
			rows = append(rows, trackRows...)
		}
	}
	return rows
}

func rowsForTrack(market string, playlist data.Playlist, track data.Track) ([]data.Row, error) {
	if track.SpotifyID == "" {
		return nil, fmt.Errorf("track id: %w", ErrSchema)
	}
	if track.Name == "" {
		return nil, fmt.Errorf("track name: %w", ErrSchema)
	}
	if track.Popularity < 0 || track.Popularity > 100 {
		return nil, fmt.Errorf("popularity %d out of range: %w", track.Popularity, ErrSchema)
	}

	genres := Genres(track)
	if len(genres) == 0 {
		return nil, nil
	}

	var artist string
	if primary, ok := track.PrimaryArtist(); ok {
		artist = primary.Name
	}

	rows := make([]data.Row, 0, len(genres))
	for _, genre := range genres {
		rows = append(rows, data.Row{
			Market:       market,
			Genre:        genre,
			PlaylistID:   playlist.SpotifyID,
			PlaylistName: playlist.Name,
			TrackID:      track.SpotifyID,
			TrackName:    track.Name,
			Artist:       artist,
			ArtistCount:  int64(len(track.Artists)),
			Popularity:   track.Popularity,
			Explicit:     track.Explicit,
			DurationMS:   track.DurationMS,
		})
	}
	return rows, nil
}

// Genres returns the sorted, case-normalized union of a track's own tags and
// its primary artist's tags.
func Genres(track data.Track) []string {
	set := map[string]bool{}
	for _, genre := range track.Genres {
		if normalized := Normalize(genre); normalized != "" {
			set[normalized] = true
		}
	}
	if primary, ok := track.PrimaryArtist(); ok {
		for _, genre := range primary.Genres {
			if normalized := Normalize(genre); normalized != "" {
				set[normalized] = true
			}
		}
	}

	genres := make([]string, 0, len(set))
	for genre := range set {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return genres
}

// Normalize lowercases a genre label and collapses interior whitespace, so
// "Indie  Pop" and "indie pop" aggregate together.
func Normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
