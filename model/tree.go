package model

// Record is one flat row of an imported library: artist, track name, year and
// a genre field that is itself a `;`-separated list encoded as a single value.
// All fields are opaque text; nothing is validated, coerced or trimmed.
type Record struct {
	Artist    string `json:"artist"`
	TrackName string `json:"trackName"`
	Year      string `json:"year"`
	Genre     string `json:"genre"`
}

// NodeKind classifies a tree node.
type NodeKind string

const (
	KindArtist NodeKind = "artist"
	KindTrack  NodeKind = "track"
	KindYear   NodeKind = "year"
	KindGenre  NodeKind = "genre"
)

// Root node constants. The root is synthetic: it represents the whole library
// and is tagged as an artist node for structural convenience.
const (
	RootID    = "root"
	RootLabel = "Library"
)

// Node is one entry in the browse tree.
//
// Ownership runs strictly parent→children; Parent is a non-owning back
// reference used for navigation only. Year and genre nodes additionally keep
// their owning track as their single child — a compatibility quirk, not a real
// tree edge — so any walk over Children must stop below the track level.
type Node struct {
	ID       string
	Label    string
	Kind     NodeKind
	Children []*Node
	Parent   *Node
}
