package db

import (
	"fmt"

	"marketscope/data"
)

// Runs returns archived runs, newest first. An empty market means all
// markets.
func (db *DB) Runs(market string, limit int) ([]data.Run, error) {
	q := db.Table("runs").Order("ran_at desc, id desc")
	if market != "" {
		q = q.Where("market = ?", market)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var runs []data.Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error querying runs for '%s': %w", market, err)
	}
	return runs, nil
}

// GenreRecords returns the market's archived genre aggregation from its most
// recent run, most-tracked genres first.
func (db *DB) GenreRecords(market string) ([]data.GenreRecord, error) {
	var records []data.GenreRecord
	if err := db.
		Table("genre_records").
		Where("market = ?", market).
		Order("track_count desc, name asc").
		Find(&records).
		Error; err != nil {
		return nil, fmt.Errorf("error querying genre records for '%s': %w", market, err)
	}
	return records, nil
}

// CountPlaylists reports how many playlists the archive holds for a market.
func (db *DB) CountPlaylists(market string) (int64, error) {
	var count int64
	if err := db.
		Table("playlists").
		Where("market = ?", market).
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("error counting playlists for '%s': %w", market, err)
	}
	return count, nil
}
