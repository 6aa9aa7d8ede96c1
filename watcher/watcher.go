package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"melotree/core/catalog"
	"melotree/logger"
	"melotree/model"
	"melotree/repository"

	"github.com/fsnotify/fsnotify"
)

// importedDir is where successfully imported files are moved so they are not
// picked up again.
const importedDir = "imported"

// settleDelay gives the writer of a freshly created file a moment to finish
// before the file is read.
const settleDelay = 200 * time.Millisecond

// Importer imports one raw library for a user.
type Importer interface {
	Import(ctx context.Context, userID int64, name string, raw []byte) (*model.Library, *catalog.TreeView, error)
}

// Watcher imports CSV library files dropped into a directory. Imported
// libraries belong to the configured seed user.
type Watcher struct {
	dir      string
	username string
	svc      Importer
	users    repository.UserRepository
}

// New creates a watch-folder importer.
func New(dir, username string, svc Importer, users repository.UserRepository) *Watcher {
	return &Watcher{dir: dir, username: username, svc: svc, users: users}
}

// Run watches the directory until the context is cancelled. Files already
// present at startup are imported first.
func (w *Watcher) Run(ctx context.Context) error {
	user, err := w.users.GetUserByUsername(w.username)
	if err != nil {
		return fmt.Errorf("failed to resolve import user %q: %w", w.username, err)
	}
	if user == nil {
		return fmt.Errorf("import user %q does not exist", w.username)
	}

	if err := os.MkdirAll(filepath.Join(w.dir, importedDir), 0755); err != nil {
		return fmt.Errorf("failed to create imported dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	logger.Info("watching folder for library files", logger.String("dir", w.dir))

	// Pick up files that were already there
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list watch dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			w.importFile(ctx, user.ID, filepath.Join(w.dir, entry.Name()))
		}
	}

	for {
		select {
		case event := <-watcher.Events:
			w.handleEvent(ctx, user.ID, event)
		case err := <-watcher.Errors:
			logger.Warn("watcher error", logger.ErrorField(err))
		case <-ctx.Done():
			return nil
		}
	}
}

// handleEvent imports the file behind a Create event. There is no per-name
// dedup state: names recur by design (imports rename the file aside precisely
// so the same name can be dropped again), and a duplicate Create event for an
// already-imported file resolves itself because the file is gone by then.
func (w *Watcher) handleEvent(ctx context.Context, userID int64, event fsnotify.Event) {
	if event.Op&fsnotify.Create != fsnotify.Create || !strings.HasSuffix(event.Name, ".csv") {
		return
	}
	// Give the writer a moment to finish
	time.Sleep(settleDelay)
	w.importFile(ctx, userID, event.Name)
}

func (w *Watcher) importFile(ctx context.Context, userID int64, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Already imported and moved aside (duplicate event)
			logger.Debug("dropped file already handled", logger.String("path", path))
			return
		}
		logger.Error("failed to read dropped file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	lib, _, err := w.svc.Import(ctx, userID, name, raw)
	if err != nil {
		logger.Error("failed to import dropped file", logger.String("path", path), logger.ErrorField(err))
		return
	}

	dest := filepath.Join(w.dir, importedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		logger.Warn("failed to move imported file aside",
			logger.String("path", path), logger.ErrorField(err))
	}

	logger.Info("imported dropped library file",
		logger.String("path", path),
		logger.String("libraryId", lib.ID),
		logger.Int("tracks", lib.TrackCount))
}
