package catalog

import (
	"strings"

	"melotree/model"
)

// BuildTree converts an ordered sequence of flat records into one rooted
// browse tree: Artist → Track → {Year, Genre×N}.
//
// The pass is deterministic and order-preserving. Artists are deduplicated by
// exact name and appear under the root in order of first appearance; tracks
// are never deduplicated — every record yields a fresh track node under its
// artist, in input order. Each track gets one year child followed by one genre
// child per `;`-separated token of the record's genre field, tokens taken
// verbatim (no trimming, no dedup; an empty genre field yields a single empty
// token).
//
// Node identities are the path labels below the root joined with "/". A
// repeated artist+track pair therefore produces two track nodes with equal
// identities; that collision is intentional, see DESIGN.md.
//
// BuildTree is a pure function: it never mutates records, raises no errors,
// and accepts any sequence of string quadruples. Empty input yields the
// synthetic root with zero children.
func BuildTree(records []model.Record) *model.Node {
	root := &model.Node{
		ID:    model.RootID,
		Label: model.RootLabel,
		Kind:  model.KindArtist,
	}

	// Artist dedup map, scoped to this one build.
	artists := make(map[string]*model.Node, len(records))

	for _, rec := range records {
		artist, seen := artists[rec.Artist]
		if !seen {
			artist = &model.Node{
				ID:     rec.Artist,
				Label:  rec.Artist,
				Kind:   model.KindArtist,
				Parent: root,
			}
			artists[rec.Artist] = artist
			root.Children = append(root.Children, artist)
		}

		track := &model.Node{
			ID:     nodeID(rec.Artist, rec.TrackName),
			Label:  rec.TrackName,
			Kind:   model.KindTrack,
			Parent: artist,
		}
		artist.Children = append(artist.Children, track)

		year := &model.Node{
			ID:     nodeID(rec.Artist, rec.TrackName, rec.Year),
			Label:  rec.Year,
			Kind:   model.KindYear,
			Parent: track,
			// Back-link to the owning track, kept for compatibility.
			Children: []*model.Node{track},
		}
		track.Children = append(track.Children, year)

		for _, token := range strings.Split(rec.Genre, ";") {
			genre := &model.Node{
				ID:       nodeID(rec.Artist, rec.TrackName, token),
				Label:    token,
				Kind:     model.KindGenre,
				Parent:   track,
				Children: []*model.Node{track},
			}
			track.Children = append(track.Children, genre)
		}
	}

	return root
}

// nodeID derives a node identity from its path of ancestor labels, root
// excluded.
func nodeID(labels ...string) string {
	return strings.Join(labels, "/")
}
