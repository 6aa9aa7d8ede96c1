package catalog

import (
	"encoding/json"
	"testing"

	"melotree/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTreeEmptyInput(t *testing.T) {
	root := BuildTree(nil)
	require.NotNil(t, root)
	assert.Equal(t, model.RootID, root.ID)
	assert.Equal(t, model.RootLabel, root.Label)
	assert.Equal(t, model.KindArtist, root.Kind)
	assert.Empty(t, root.Children)
	assert.Nil(t, root.Parent)

	root = BuildTree([]model.Record{})
	assert.Empty(t, root.Children)
}

func TestBuildTreeScenario(t *testing.T) {
	records := []model.Record{
		{Artist: "The Beatles", TrackName: "Hey Jude", Year: "1968", Genre: "Rock;Pop"},
		{Artist: "The Beatles", TrackName: "Let It Be", Year: "1970", Genre: "Rock;Pop"},
		{Artist: "Queen", TrackName: "Bohemian Rhapsody", Year: "1975", Genre: "Rock"},
	}

	root := BuildTree(records)

	require.Len(t, root.Children, 2)
	beatles := root.Children[0]
	queen := root.Children[1]
	assert.Equal(t, "The Beatles", beatles.Label)
	assert.Equal(t, "Queen", queen.Label)
	assert.Equal(t, model.KindArtist, beatles.Kind)

	require.Len(t, beatles.Children, 2)
	heyJude := beatles.Children[0]
	letItBe := beatles.Children[1]
	assert.Equal(t, "Hey Jude", heyJude.Label)
	assert.Equal(t, "Let It Be", letItBe.Label)
	assert.Equal(t, model.KindTrack, heyJude.Kind)
	assert.Equal(t, "The Beatles/Hey Jude", heyJude.ID)

	require.Len(t, heyJude.Children, 3)
	year := heyJude.Children[0]
	assert.Equal(t, model.KindYear, year.Kind)
	assert.Equal(t, "1968", year.Label)
	assert.Equal(t, "The Beatles/Hey Jude/1968", year.ID)
	assert.Equal(t, model.KindGenre, heyJude.Children[1].Kind)
	assert.Equal(t, "Rock", heyJude.Children[1].Label)
	assert.Equal(t, "Pop", heyJude.Children[2].Label)
	assert.Equal(t, "The Beatles/Hey Jude/Pop", heyJude.Children[2].ID)

	require.Len(t, queen.Children, 1)
	bohemian := queen.Children[0]
	assert.Equal(t, "Bohemian Rhapsody", bohemian.Label)
	require.Len(t, bohemian.Children, 2)
	assert.Equal(t, "1975", bohemian.Children[0].Label)
	assert.Equal(t, "Rock", bohemian.Children[1].Label)
}

func TestBuildTreeArtistDedupKeepsFirstSeenOrder(t *testing.T) {
	records := []model.Record{
		{Artist: "B", TrackName: "one", Year: "2000", Genre: "x"},
		{Artist: "A", TrackName: "two", Year: "2001", Genre: "x"},
		{Artist: "B", TrackName: "three", Year: "2002", Genre: "x"},
		{Artist: "A", TrackName: "four", Year: "2003", Genre: "x"},
	}

	root := BuildTree(records)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "B", root.Children[0].Label)
	assert.Equal(t, "A", root.Children[1].Label)
	// Tracks append in input order under their artist
	require.Len(t, root.Children[0].Children, 2)
	assert.Equal(t, "one", root.Children[0].Children[0].Label)
	assert.Equal(t, "three", root.Children[0].Children[1].Label)
}

func TestBuildTreeTracksNeverDeduplicated(t *testing.T) {
	rec := model.Record{Artist: "Queen", TrackName: "Bohemian Rhapsody", Year: "1975", Genre: "Rock"}
	root := BuildTree([]model.Record{rec, rec, rec})

	require.Len(t, root.Children, 1)
	tracks := root.Children[0].Children
	require.Len(t, tracks, 3)

	// Repeated artist+track pairs keep colliding identities; see DESIGN.md
	assert.Equal(t, tracks[0].ID, tracks[1].ID)
	assert.Equal(t, tracks[1].ID, tracks[2].ID)
	assert.NotSame(t, tracks[0], tracks[1])
}

func TestBuildTreeGenreTokensVerbatim(t *testing.T) {
	root := BuildTree([]model.Record{
		{Artist: "a", TrackName: "t", Year: "1999", Genre: "Rock; Pop ;"},
	})

	track := root.Children[0].Children[0]
	require.Len(t, track.Children, 4) // year + 3 tokens
	assert.Equal(t, "Rock", track.Children[1].Label)
	assert.Equal(t, " Pop ", track.Children[2].Label)
	assert.Equal(t, "", track.Children[3].Label)
}

func TestBuildTreeEmptyGenreFieldYieldsOneEmptyToken(t *testing.T) {
	root := BuildTree([]model.Record{
		{Artist: "a", TrackName: "t", Year: "1999", Genre: ""},
	})

	track := root.Children[0].Children[0]
	require.Len(t, track.Children, 2)
	assert.Equal(t, model.KindYear, track.Children[0].Kind)
	genre := track.Children[1]
	assert.Equal(t, model.KindGenre, genre.Kind)
	assert.Equal(t, "", genre.Label)
	assert.Equal(t, "a/t/", genre.ID)
}

func TestBuildTreeDegenerateFieldsAreOrdinaryNodes(t *testing.T) {
	root := BuildTree([]model.Record{{}})

	require.Len(t, root.Children, 1)
	artist := root.Children[0]
	assert.Equal(t, "", artist.Label)
	require.Len(t, artist.Children, 1)
	track := artist.Children[0]
	assert.Equal(t, "/", track.ID)
	require.Len(t, track.Children, 2)
}

func TestBuildTreeTrackCountEqualsRecordCount(t *testing.T) {
	records := []model.Record{
		{Artist: "a", TrackName: "1", Year: "1990", Genre: "g"},
		{Artist: "a", TrackName: "1", Year: "1990", Genre: "g"},
		{Artist: "b", TrackName: "2", Year: "1991", Genre: "g;h"},
		{Artist: "c", TrackName: "3", Year: "1992", Genre: ""},
	}

	root := BuildTree(records)

	count := 0
	for _, artist := range root.Children {
		count += len(artist.Children)
	}
	assert.Equal(t, len(records), count)
}

func TestBuildTreeParentAndBackLinks(t *testing.T) {
	root := BuildTree([]model.Record{
		{Artist: "a", TrackName: "t", Year: "2020", Genre: "g1;g2"},
	})

	artist := root.Children[0]
	track := artist.Children[0]
	assert.Same(t, root, artist.Parent)
	assert.Same(t, artist, track.Parent)

	for _, leaf := range track.Children {
		assert.Same(t, track, leaf.Parent)
		// Year/genre nodes keep the owning track as their only child
		require.Len(t, leaf.Children, 1)
		assert.Same(t, track, leaf.Children[0])
	}
}

func TestBuildTreeIdempotent(t *testing.T) {
	records := []model.Record{
		{Artist: "The Beatles", TrackName: "Hey Jude", Year: "1968", Genre: "Rock;Pop"},
		{Artist: "Queen", TrackName: "Bohemian Rhapsody", Year: "1975", Genre: "Rock"},
	}

	first, err := json.Marshal(Project(BuildTree(records)))
	require.NoError(t, err)
	second, err := json.Marshal(Project(BuildTree(records)))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestBuildTreeDoesNotMutateInput(t *testing.T) {
	records := []model.Record{
		{Artist: "a", TrackName: "t", Year: "2020", Genre: "g1;g2"},
		{Artist: "b", TrackName: "u", Year: "2021", Genre: ""},
	}
	original := make([]model.Record, len(records))
	copy(original, records)

	BuildTree(records)

	assert.Equal(t, original, records)
}
