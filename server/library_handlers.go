package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"melotree/cache"
	"melotree/core/catalog"
	"melotree/logger"
	"melotree/model"

	"github.com/gorilla/mux"
)

// ListLibrariesHandler returns the caller's libraries, newest first.
func (h *APIHandler) ListLibrariesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	libs, err := h.libraryRepo.GetLibrariesByUserID(userID)
	if err != nil {
		logger.Error("failed to list libraries", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"libraries": libs})
}

// UploadLibraryHandler imports a CSV library.
// Expected multipart form fields:
// - csvFile: the delimited library file with an Artist,TrackName,Year,Genre header
// - name: display name for the library (optional, defaults to the file name)
func (h *APIHandler) UploadLibraryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("csvFile")
	if err != nil {
		http.Error(w, "Missing 'csvFile' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	lib, view, err := h.librarySvc.Import(r.Context(), userID, name, raw)
	if err != nil {
		logger.Error("library import failed", logger.ErrorField(err))
		http.Error(w, fmt.Sprintf("Failed to import library: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"library": lib,
		"tree":    view,
	})
}

// GetLibraryTreeHandler returns the browse tree projection with the caller's
// expand/collapse state merged in.
func (h *APIHandler) GetLibraryTreeHandler(w http.ResponseWriter, r *http.Request) {
	userID, lib, ok := h.resolveLibrary(w, r)
	if !ok {
		return
	}

	view, err := h.librarySvc.Tree(r.Context(), lib)
	if err != nil {
		logger.Error("failed to build library tree",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	expanded, err := cache.GetExpandedNodes(r.Context(), userID, lib.ID)
	if err != nil {
		logger.Warn("failed to load view state", logger.ErrorField(err))
		expanded = map[string]bool{}
	}
	catalog.ApplyState(view, expanded)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"library": lib,
		"tree":    view,
	})
}

// DownloadLibraryHandler serves the original uploaded CSV text unchanged.
func (h *APIHandler) DownloadLibraryHandler(w http.ResponseWriter, r *http.Request) {
	_, lib, ok := h.resolveLibrary(w, r)
	if !ok {
		return
	}

	rc, err := h.librarySvc.Raw(r.Context(), lib)
	if err != nil {
		logger.Error("failed to open stored library",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", lib.Name+".csv"))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Error("failed to stream library download", logger.ErrorField(err))
	}
}

// DeleteLibraryHandler removes a library and everything derived from it.
func (h *APIHandler) DeleteLibraryHandler(w http.ResponseWriter, r *http.Request) {
	_, lib, ok := h.resolveLibrary(w, r)
	if !ok {
		return
	}

	if err := h.librarySvc.Delete(r.Context(), lib); err != nil {
		logger.Error("failed to delete library",
			logger.String("libraryId", lib.ID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NodeStateRequest toggles one node's expanded flag.
type NodeStateRequest struct {
	NodeID   string `json:"nodeId"`
	Expanded bool   `json:"expanded"`
}

// UpdateNodeStateHandler records expand/collapse state for the caller. The
// state lives outside the tree; re-imports and cache rebuilds never touch it.
func (h *APIHandler) UpdateNodeStateHandler(w http.ResponseWriter, r *http.Request) {
	userID, lib, ok := h.resolveLibrary(w, r)
	if !ok {
		return
	}

	var req NodeStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.NodeID == "" {
		http.Error(w, "nodeId is required", http.StatusBadRequest)
		return
	}

	if err := cache.SetNodeExpanded(r.Context(), userID, lib.ID, req.NodeID, req.Expanded); err != nil {
		logger.Error("failed to update view state", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveLibrary loads the {id} route variable and enforces ownership. On
// failure it writes the error response and returns ok=false.
func (h *APIHandler) resolveLibrary(w http.ResponseWriter, r *http.Request) (int64, *model.Library, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, nil, false
	}

	id := mux.Vars(r)["id"]
	lib, err := h.libraryRepo.GetLibraryByID(id)
	if err != nil {
		logger.Error("failed to load library", logger.String("libraryId", id), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return 0, nil, false
	}
	if lib == nil || lib.UserID != userID {
		// Not found and not-yours look the same to the caller
		http.Error(w, "Library not found", http.StatusNotFound)
		return 0, nil, false
	}
	return userID, lib, true
}
