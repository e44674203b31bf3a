package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdedup/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "results.db")
	srv, err := New(dbPath, 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { srv.storage.Close() })
	return srv
}

func seedBatch(t *testing.T, srv *Server) string {
	t.Helper()
	items := []*models.Item{
		{Index: 0, Handle: "a", URL: "https://example.com/x"},
		{Index: 1, Handle: "b", URL: "https://example.com/x"},
		{Index: 2, Handle: "c", URL: "https://example.com/y"},
	}
	groups := []*models.DuplicateGroup{
		{Primary: items[0], Duplicates: []*models.Item{items[1]}},
		{Primary: items[2]},
	}
	id, err := srv.storage.SaveBatch("test", items, groups, models.Stats{NumWithDups: 1, TotalDups: 1})
	require.NoError(t, err)
	return id
}

func TestServer_Batches(t *testing.T) {
	srv := newTestServer(t)
	seedBatch(t, srv)

	rec := httptest.NewRecorder()
	srv.handleBatches(rec, httptest.NewRequest(http.MethodGet, "/api/batches", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var batches []*models.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "test", batches[0].Source)
	assert.Equal(t, 3, batches[0].TotalItems)
}

func TestServer_GroupsFiltersSingletons(t *testing.T) {
	srv := newTestServer(t)
	batchID := seedBatch(t, srv)

	rec := httptest.NewRecorder()
	srv.handleGroups(rec, httptest.NewRequest(http.MethodGet, "/api/groups?batch="+batchID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var groups []*models.DuplicateGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "a", groups[0].Primary.Handle)
	require.Len(t, groups[0].Duplicates, 1)
	assert.Equal(t, "b", groups[0].Duplicates[0].Handle)
}

func TestServer_GroupsDefaultsToLatestBatch(t *testing.T) {
	srv := newTestServer(t)
	seedBatch(t, srv)

	rec := httptest.NewRecorder()
	srv.handleGroups(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var groups []*models.DuplicateGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	assert.Len(t, groups, 1)
}

func TestServer_GroupsNoBatches(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleGroups(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Stats(t *testing.T) {
	srv := newTestServer(t)
	batchID := seedBatch(t, srv)

	rec := httptest.NewRecorder()
	srv.handleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats?batch="+batchID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, models.Stats{NumWithDups: 1, TotalDups: 1}, stats)
}

func TestServer_TouchResetsIdleClock(t *testing.T) {
	srv := newTestServer(t)
	srv.mu.Lock()
	srv.lastActivity = time.Now().Add(-time.Hour)
	srv.mu.Unlock()

	handler := srv.touch(func(w http.ResponseWriter, r *http.Request) {})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	srv.mu.Lock()
	idle := time.Since(srv.lastActivity)
	srv.mu.Unlock()
	assert.Less(t, idle, time.Minute)
}
