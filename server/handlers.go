package server

import (
	"context"
	"io"
	"net/http"

	"melotree/config"
	"melotree/core/catalog"
	"melotree/core/notify"
	"melotree/model"
	"melotree/repository"
)

// LibraryService is the import pipeline surface the handlers depend on.
// Implemented by library.Service.
type LibraryService interface {
	Import(ctx context.Context, userID int64, name string, raw []byte) (*model.Library, *catalog.TreeView, error)
	Tree(ctx context.Context, lib *model.Library) (*catalog.TreeView, error)
	Raw(ctx context.Context, lib *model.Library) (io.ReadCloser, error)
	Delete(ctx context.Context, lib *model.Library) error
}

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo    repository.UserRepository
	libraryRepo repository.LibraryRepository
	librarySvc  LibraryService
	hub         *notify.Hub
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	libraryRepo repository.LibraryRepository,
	librarySvc LibraryService,
	hub *notify.Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:    userRepo,
		libraryRepo: libraryRepo,
		librarySvc:  librarySvc,
		hub:         hub,
		cfg:         cfg,
	}
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// LibraryEventsHandler subscribes the connection to library lifecycle events.
func (h *APIHandler) LibraryEventsHandler(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}
