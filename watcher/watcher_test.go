package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"melotree/core/catalog"
	"melotree/model"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingImporter struct {
	names    []string
	payloads []string
}

func (r *recordingImporter) Import(ctx context.Context, userID int64, name string, raw []byte) (*model.Library, *catalog.TreeView, error) {
	r.names = append(r.names, name)
	r.payloads = append(r.payloads, string(raw))
	return &model.Library{ID: "lib-" + name, UserID: userID, Name: name}, nil, nil
}

const csvBody = "Artist,TrackName,Year,Genre\nQueen,Bohemian Rhapsody,1975,Rock\n"

func TestHandleEventImportsAndMovesFileAside(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, importedDir), 0755))

	imp := &recordingImporter{}
	w := New(dir, "local", imp, nil)

	path := filepath.Join(dir, "library.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvBody), 0644))

	w.handleEvent(context.Background(), 1, fsnotify.Event{Name: path, Op: fsnotify.Create})

	require.Equal(t, []string{"library"}, imp.names)
	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(dir, importedDir, "library.csv"))
}

func TestHandleEventImportsReusedFileName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, importedDir), 0755))

	imp := &recordingImporter{}
	w := New(dir, "local", imp, nil)

	path := filepath.Join(dir, "library.csv")
	event := fsnotify.Event{Name: path, Op: fsnotify.Create}

	require.NoError(t, os.WriteFile(path, []byte(csvBody), 0644))
	w.handleEvent(context.Background(), 1, event)

	// The same name dropped again, e.g. a re-exported library
	second := "Artist,TrackName,Year,Genre\nQueen,Somebody to Love,1976,Rock\n"
	require.NoError(t, os.WriteFile(path, []byte(second), 0644))
	w.handleEvent(context.Background(), 1, event)

	require.Equal(t, []string{"library", "library"}, imp.names)
	assert.Equal(t, second, imp.payloads[1])

	// The move-aside keeps the latest copy
	moved, err := os.ReadFile(filepath.Join(dir, importedDir, "library.csv"))
	require.NoError(t, err)
	assert.Equal(t, second, string(moved))
}

func TestHandleEventDuplicateEventForHandledFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, importedDir), 0755))

	imp := &recordingImporter{}
	w := New(dir, "local", imp, nil)

	path := filepath.Join(dir, "library.csv")
	event := fsnotify.Event{Name: path, Op: fsnotify.Create}

	require.NoError(t, os.WriteFile(path, []byte(csvBody), 0644))
	w.handleEvent(context.Background(), 1, event)
	// File is gone by now; a duplicate Create event must be a no-op
	w.handleEvent(context.Background(), 1, event)

	assert.Equal(t, []string{"library"}, imp.names)
}

func TestHandleEventIgnoresNonCSVAndNonCreate(t *testing.T) {
	dir := t.TempDir()
	imp := &recordingImporter{}
	w := New(dir, "local", imp, nil)

	w.handleEvent(context.Background(), 1, fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Create})
	w.handleEvent(context.Background(), 1, fsnotify.Event{Name: filepath.Join(dir, "library.csv"), Op: fsnotify.Write})

	assert.Empty(t, imp.names)
}
