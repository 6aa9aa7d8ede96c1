package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"melotree/config"
	"melotree/core/catalog"
	"melotree/model"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLibraryRepo struct {
	libs map[string]*model.Library
}

func (r *stubLibraryRepo) CreateLibrary(lib *model.Library) error {
	r.libs[lib.ID] = lib
	return nil
}

func (r *stubLibraryRepo) GetLibraryByID(id string) (*model.Library, error) {
	return r.libs[id], nil
}

func (r *stubLibraryRepo) GetLibrariesByUserID(userID int64) ([]*model.Library, error) {
	libs := make([]*model.Library, 0)
	for _, lib := range r.libs {
		if lib.UserID == userID {
			libs = append(libs, lib)
		}
	}
	return libs, nil
}

func (r *stubLibraryRepo) DeleteLibrary(id string) error {
	delete(r.libs, id)
	return nil
}

// stubLibraryService serves Raw from an in-memory map keyed by object key.
type stubLibraryService struct {
	objects map[string]string
}

func (s *stubLibraryService) Import(ctx context.Context, userID int64, name string, raw []byte) (*model.Library, *catalog.TreeView, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (s *stubLibraryService) Tree(ctx context.Context, lib *model.Library) (*catalog.TreeView, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubLibraryService) Raw(ctx context.Context, lib *model.Library) (io.ReadCloser, error) {
	body, ok := s.objects[lib.ObjectKey]
	if !ok {
		return nil, fmt.Errorf("failed to stat library CSV %s: object does not exist", lib.ObjectKey)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *stubLibraryService) Delete(ctx context.Context, lib *model.Library) error {
	delete(s.objects, lib.ObjectKey)
	return nil
}

func newDownloadFixture(t *testing.T) (*APIHandler, *stubLibraryService) {
	t.Helper()
	svc := &stubLibraryService{objects: map[string]string{}}
	repo := &stubLibraryRepo{libs: map[string]*model.Library{
		"lib-1": {ID: "lib-1", UserID: 1, Name: "favorites", ObjectKey: "libraries/lib-1.csv"},
	}}
	return NewAPIHandler(nil, repo, svc, nil, &config.Config{}), svc
}

func downloadRequest(id string, userID int64) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/libraries/"+id+"/download", nil)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	ctx := context.WithValue(req.Context(), "userID", userID)
	return req.WithContext(ctx)
}

func TestDownloadLibraryHandler(t *testing.T) {
	h, svc := newDownloadFixture(t)
	svc.objects["libraries/lib-1.csv"] = "Artist,TrackName,Year,Genre\nQueen,Bohemian Rhapsody,1975,Rock\n"

	rec := httptest.NewRecorder()
	h.DownloadLibraryHandler(rec, downloadRequest("lib-1", 1))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `favorites.csv`)
	assert.Equal(t, svc.objects["libraries/lib-1.csv"], rec.Body.String())
}

func TestDownloadLibraryHandlerMissingObjectIs404(t *testing.T) {
	// Metadata row exists but the stored object is gone
	h, _ := newDownloadFixture(t)

	rec := httptest.NewRecorder()
	h.DownloadLibraryHandler(rec, downloadRequest("lib-1", 1))

	require.Equal(t, http.StatusNotFound, rec.Code)
	// No CSV headers may be written before the object is known to exist
	assert.NotEqual(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.NotContains(t, rec.Body.String(), "Artist")
}

func TestDownloadLibraryHandlerUnknownLibraryIs404(t *testing.T) {
	h, _ := newDownloadFixture(t)

	rec := httptest.NewRecorder()
	h.DownloadLibraryHandler(rec, downloadRequest("nope", 1))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadLibraryHandlerForeignLibraryIs404(t *testing.T) {
	h, svc := newDownloadFixture(t)
	svc.objects["libraries/lib-1.csv"] = "Artist,TrackName,Year,Genre\n"

	rec := httptest.NewRecorder()
	h.DownloadLibraryHandler(rec, downloadRequest("lib-1", 2))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
