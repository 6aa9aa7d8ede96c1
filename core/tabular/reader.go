package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"melotree/model"
)

// Header column names expected in the first row of a library CSV.
const (
	ColArtist    = "Artist"
	ColTrackName = "TrackName"
	ColYear      = "Year"
	ColGenre     = "Genre"
)

// ParseRecords reads delimited text from r and returns the ordered record
// sequence. The first row is a header naming the four expected columns, in any
// order; extra columns are ignored. Cell text is passed through verbatim —
// no trimming, no validation — and rows shorter than the header yield empty
// strings for the missing cells. Empty input yields an empty sequence.
func ParseRecords(r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Row widths vary; missing cells become ""
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff") // strip UTF-8 BOM
		}
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColArtist, ColTrackName, ColYear, ColGenre} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q in header", required)
		}
	}

	records := make([]model.Record, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+2, err)
		}
		records = append(records, model.Record{
			Artist:    cell(row, columns[ColArtist]),
			TrackName: cell(row, columns[ColTrackName]),
			Year:      cell(row, columns[ColYear]),
			Genre:     cell(row, columns[ColGenre]),
		})
	}
	return records, nil
}

// Parse parses a library CSV held in memory as a string.
func Parse(input string) ([]model.Record, error) {
	return ParseRecords(strings.NewReader(input))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
