package tabular

import (
	"strings"
	"testing"

	"melotree/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords(t *testing.T) {
	input := "Artist,TrackName,Year,Genre\n" +
		"The Beatles,Hey Jude,1968,Rock;Pop\n" +
		"Queen,Bohemian Rhapsody,1975,Rock\n"

	records, err := Parse(input)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, model.Record{Artist: "The Beatles", TrackName: "Hey Jude", Year: "1968", Genre: "Rock;Pop"}, records[0])
	assert.Equal(t, model.Record{Artist: "Queen", TrackName: "Bohemian Rhapsody", Year: "1975", Genre: "Rock"}, records[1])
}

func TestParseRecordsEmptyInput(t *testing.T) {
	records, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseRecordsHeaderOnly(t *testing.T) {
	records, err := Parse("Artist,TrackName,Year,Genre\n")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseRecordsColumnOrderIndependent(t *testing.T) {
	input := "Year,Genre,Artist,TrackName\n" +
		"1975,Rock,Queen,Bohemian Rhapsody\n"

	records, err := Parse(input)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Queen", records[0].Artist)
	assert.Equal(t, "Bohemian Rhapsody", records[0].TrackName)
	assert.Equal(t, "1975", records[0].Year)
	assert.Equal(t, "Rock", records[0].Genre)
}

func TestParseRecordsMissingColumn(t *testing.T) {
	_, err := Parse("Artist,TrackName,Year\nQueen,Song,1975\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Genre")
}

func TestParseRecordsShortRowsYieldEmptyCells(t *testing.T) {
	input := "Artist,TrackName,Year,Genre\nQueen,Bohemian Rhapsody\n"

	records, err := Parse(input)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Queen", records[0].Artist)
	assert.Equal(t, "", records[0].Year)
	assert.Equal(t, "", records[0].Genre)
}

func TestParseRecordsFieldsVerbatim(t *testing.T) {
	input := "Artist,TrackName,Year,Genre\n" +
		"\" Queen \",song,not-a-year,Rock; Pop ;\n"

	records, err := Parse(input)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, " Queen ", records[0].Artist)
	assert.Equal(t, "not-a-year", records[0].Year)
	assert.Equal(t, "Rock; Pop ;", records[0].Genre)
}

func TestParseRecordsIgnoresExtraColumns(t *testing.T) {
	input := "Artist,TrackName,Year,Genre,Rating\nQueen,Song,1975,Rock,5\n"

	records, err := Parse(input)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Rock", records[0].Genre)
}

func TestParseRecordsStripsHeaderBOM(t *testing.T) {
	input := "\ufeffArtist,TrackName,Year,Genre\nQueen,Song,1975,Rock\n"

	records, err := ParseRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Queen", records[0].Artist)
}
