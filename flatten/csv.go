package flatten

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"marketscope/data"
)

var header = []string{
	"market", "genre",
	"playlist_id", "playlist_name",
	"track_id", "track_name",
	"artist", "artist_count",
	"popularity", "explicit", "duration_ms",
}

// WriteCSV writes the rows to path, creating parent directories as needed.
// An existing file is overwritten.
func WriteCSV(path string, rows []data.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating dir for '%s': %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating '%s': %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("error writing header to '%s': %w", path, err)
	}
	for _, row := range rows {
		record := []string{
			row.Market, row.Genre,
			row.PlaylistID, row.PlaylistName,
			row.TrackID, row.TrackName,
			row.Artist, strconv.FormatInt(row.ArtistCount, 10),
			strconv.FormatInt(row.Popularity, 10),
			strconv.FormatBool(row.Explicit),
			strconv.FormatInt(row.DurationMS, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("error writing row to '%s': %w", path, err)
		}
	}

	w.Flush()
	return w.Error()
}

// ReadCSV reads rows back from a processed-data file written by WriteCSV.
func ReadCSV(path string) ([]data.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening '%s': %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading '%s': %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("'%s' has no header row", path)
	}
	if got := len(records[0]); got != len(header) {
		return nil, fmt.Errorf("'%s' has %d columns, want %d", path, got, len(header))
	}

	rows := make([]data.Row, 0, len(records)-1)
	for i, record := range records[1:] {
		artistCount, err := strconv.ParseInt(record[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("'%s' row %d artist_count: %w", path, i+1, err)
		}
		popularity, err := strconv.ParseInt(record[8], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("'%s' row %d popularity: %w", path, i+1, err)
		}
		explicit, err := strconv.ParseBool(record[9])
		if err != nil {
			return nil, fmt.Errorf("'%s' row %d explicit: %w", path, i+1, err)
		}
		durationMS, err := strconv.ParseInt(record[10], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("'%s' row %d duration_ms: %w", path, i+1, err)
		}
		rows = append(rows, data.Row{
			Market:       record[0],
			Genre:        record[1],
			PlaylistID:   record[2],
			PlaylistName: record[3],
			TrackID:      record[4],
			TrackName:    record[5],
			Artist:       record[6],
			ArtistCount:  artistCount,
			Popularity:   popularity,
			Explicit:     explicit,
			DurationMS:   durationMS,
		})
	}
	return rows, nil
}
