package library

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"melotree/cache"
	"melotree/core/catalog"
	"melotree/core/notify"
	"melotree/core/tabular"
	"melotree/logger"
	"melotree/model"
	"melotree/repository"
	"melotree/storage"

	"github.com/google/uuid"
)

// Service owns the library import pipeline: parse rows, build the browse
// tree, store the raw CSV unchanged in object storage, persist metadata and
// cache the tree projection. The hub is optional; without one, events are
// simply not published.
type Service struct {
	libraries repository.LibraryRepository
	hub       *notify.Hub
}

// NewService creates a library service.
func NewService(libraries repository.LibraryRepository, hub *notify.Hub) *Service {
	return &Service{libraries: libraries, hub: hub}
}

// Import ingests one raw CSV library for a user. The raw bytes are stored
// byte-for-byte so the download endpoint can return the original text
// unchanged.
func (s *Service) Import(ctx context.Context, userID int64, name string, raw []byte) (*model.Library, *catalog.TreeView, error) {
	records, err := tabular.ParseRecords(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse library rows: %w", err)
	}

	root := catalog.BuildTree(records)

	lib := &model.Library{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		TrackCount:  len(records),
		ArtistCount: len(root.Children),
	}
	lib.ObjectKey = fmt.Sprintf("libraries/%s.csv", lib.ID)

	if err := storage.UploadLibraryCSV(ctx, lib.ObjectKey, raw); err != nil {
		return nil, nil, fmt.Errorf("failed to store raw library: %w", err)
	}

	if err := s.libraries.CreateLibrary(lib); err != nil {
		// Do not leave an orphaned object behind
		if rmErr := storage.RemoveLibraryCSV(ctx, lib.ObjectKey); rmErr != nil {
			logger.Warn("failed to clean up library object after create failure",
				logger.String("objectKey", lib.ObjectKey), logger.ErrorField(rmErr))
		}
		return nil, nil, err
	}

	view := catalog.Project(root)
	if err := cache.SetLibraryTree(ctx, lib.ID, view); err != nil {
		// Cache failures are non-fatal; the tree rebuilds from storage
		logger.Warn("failed to cache library tree",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
	}

	if s.hub != nil {
		s.hub.Publish(notify.Event{
			Type:       notify.EventLibraryImported,
			LibraryID:  lib.ID,
			Name:       lib.Name,
			UserID:     lib.UserID,
			TrackCount: lib.TrackCount,
		})
	}

	logger.Info("library imported",
		logger.String("libraryId", lib.ID),
		logger.String("name", lib.Name),
		logger.Int64("userId", lib.UserID),
		logger.Int("tracks", lib.TrackCount),
		logger.Int("artists", lib.ArtistCount))

	return lib, view, nil
}

// Tree returns the browse tree projection for a library, serving from the
// redis cache when possible and rebuilding from the stored raw CSV otherwise.
func (s *Service) Tree(ctx context.Context, lib *model.Library) (*catalog.TreeView, error) {
	view, err := cache.GetLibraryTree(ctx, lib.ID)
	if err != nil {
		logger.Warn("tree cache read failed, rebuilding",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
	}
	if view != nil {
		return view, nil
	}

	rc, err := storage.GetLibraryCSV(ctx, lib.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored library: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored library: %w", err)
	}

	records, err := tabular.ParseRecords(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored library rows: %w", err)
	}

	view = catalog.Project(catalog.BuildTree(records))
	if err := cache.SetLibraryTree(ctx, lib.ID, view); err != nil {
		logger.Warn("failed to cache rebuilt library tree",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
	}
	return view, nil
}

// Raw opens the stored original CSV, unchanged from upload. The caller must
// close the returned reader. The object is stat'ed first so a missing object
// surfaces here rather than on the first read of the lazily opened stream.
func (s *Service) Raw(ctx context.Context, lib *model.Library) (io.ReadCloser, error) {
	if err := storage.StatLibraryCSV(ctx, lib.ObjectKey); err != nil {
		return nil, err
	}
	return storage.GetLibraryCSV(ctx, lib.ObjectKey)
}

// Delete removes a library: metadata row, stored raw CSV, cached tree and the
// owner's view state.
func (s *Service) Delete(ctx context.Context, lib *model.Library) error {
	if err := s.libraries.DeleteLibrary(lib.ID); err != nil {
		return err
	}

	if err := storage.RemoveLibraryCSV(ctx, lib.ObjectKey); err != nil {
		logger.Warn("failed to remove stored library",
			logger.String("objectKey", lib.ObjectKey), logger.ErrorField(err))
	}
	if err := cache.ClearLibraryTree(ctx, lib.ID); err != nil {
		logger.Warn("failed to clear cached tree",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
	}
	if err := cache.ClearViewState(ctx, lib.UserID, lib.ID); err != nil {
		logger.Warn("failed to clear view state",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
	}

	if s.hub != nil {
		s.hub.Publish(notify.Event{
			Type:      notify.EventLibraryDeleted,
			LibraryID: lib.ID,
			Name:      lib.Name,
			UserID:    lib.UserID,
		})
	}

	logger.Info("library deleted",
		logger.String("libraryId", lib.ID), logger.String("name", lib.Name))
	return nil
}
