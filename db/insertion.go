package db

import (
	"fmt"

	"marketscope/data"

	"gorm.io/gorm/clause"
)

// ReplaceMarket supersedes the market's archived rows with the playlists and
// genre records from the current run. Tracks and artists are shared across
// markets, so those are upserted rather than deleted.
func (db *DB) ReplaceMarket(market string, playlists []data.Playlist, records []data.GenreRecord) error {
	if err := db.Exec(`delete from genre_records where market = ?`, market).Error; err != nil {
		return fmt.Errorf("error clearing genre records for '%s': %w", market, err)
	}
	if err := db.Exec(`
		delete from playlist_tracks where playlist_spotify_id in
			(select spotify_id from playlists where market = ?)`, market).Error; err != nil {
		return fmt.Errorf("error clearing playlist tracks for '%s': %w", market, err)
	}
	if err := db.Exec(`delete from playlists where market = ?`, market).Error; err != nil {
		return fmt.Errorf("error clearing playlists for '%s': %w", market, err)
	}

	for _, playlist := range playlists {
		if err := db.InsertPlaylist(&playlist); err != nil {
			return err
		}
	}
	for _, record := range records {
		if err := db.
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&record).
			Error; err != nil {
			return fmt.Errorf("error inserting genre record '%s': %w", record.Name, err)
		}
	}
	return nil
}

// InsertPlaylist, given a Playlist, inserts it and its tracks into the
// playlists, tracks, artists, track_artists, and playlist_tracks tables.
func (db *DB) InsertPlaylist(playlist *data.Playlist) error {
	if err := db.
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(playlist).
		Error; err != nil {
		return fmt.Errorf("error inserting playlist '%s': %w", playlist.Name, err)
	}

	for position, track := range playlist.Tracks {
		if err := db.InsertTrack(&track); err != nil {
			return err
		}
		if err := db.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&data.PlaylistTrack{
				PlaylistSpotifyID: playlist.SpotifyID,
				TrackSpotifyID:    track.SpotifyID,
				Position:          int64(position),
			}).
			Error; err != nil {
			return fmt.Errorf("error inserting playlist track {'%s', '%s'}: %w", playlist.Name, track.Name, err)
		}
	}
	return nil
}

// InsertTrack, given a Track, inserts it and its artists into the tracks,
// artists, and track_artists tables, refreshing popularity and followers on
// conflict.
func (db *DB) InsertTrack(track *data.Track) error {
	if err := db.
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(track).
		Error; err != nil {
		return fmt.Errorf("error inserting track '%s': %w", track.Name, err)
	}

	for _, artist := range track.Artists {
		if err := db.
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&artist).
			Error; err != nil {
			return fmt.Errorf("error inserting artist '%s': %w", artist.Name, err)
		}
		if err := db.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&data.TrackArtist{
				TrackSpotifyID:  track.SpotifyID,
				ArtistSpotifyID: artist.SpotifyID,
			}).
			Error; err != nil {
			return fmt.Errorf("error inserting track artist {'%s', '%s'}: %w", track.Name, artist.Name, err)
		}
	}

	return nil
}

// InsertRun records one completed pipeline invocation.
func (db *DB) InsertRun(run *data.Run) error {
	if err := db.Create(run).Error; err != nil {
		return fmt.Errorf("error inserting run for '%s': %w", run.Market, err)
	}
	return nil
}
