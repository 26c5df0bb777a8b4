package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storematch/internal/audit"
	"github.com/storematch/internal/engine"
	"github.com/storematch/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir, err := store.NewDirectory([]store.StoreRecord{
		{ID: 1, Name: "Tienda Centro", Classification: store.ClassStandard},
		{ID: 2, Name: "Tienda Norte", Classification: store.ClassReduced},
	}, nil)
	require.NoError(t, err)

	base := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	log := audit.NewLog()
	log.Record("s1", audit.EventResolved, "geo match to store 1")

	res := &engine.Result{
		RunID: "web-test-run",
		Submissions: []*engine.Submission{
			{ID: "s1", FormType: engine.FormOperational, SubmittedAt: base,
				StoreID: 1, Method: engine.MethodGeo, Confidence: 1.0},
			{ID: "s2", FormType: engine.FormSecurity, SubmittedAt: base.Add(time.Hour),
				StoreID: 1, Method: engine.MethodText, Confidence: 0.9},
			{ID: "s3", FormType: engine.FormOperational, SubmittedAt: base.Add(2 * time.Hour),
				Method: engine.MethodUnresolved},
		},
		Pairings: []engine.PairingLink{
			{OperationalID: "s1", SecurityID: "s2", TimeDelta: time.Hour, SameSubmitter: false},
		},
		Audit: log,
	}
	return NewServer("127.0.0.1", 0, res, dir)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestSummaryEndpoint(t *testing.T) {
	s := testServer(t)
	rr := get(t, s, "/api/summary")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "web-test-run", resp.RunID)
	require.Equal(t, 3, resp.Total)
	require.Equal(t, 2, resp.Resolved)
	require.Equal(t, 1, resp.Unresolved)
	require.Equal(t, 1, resp.Pairings)
	require.Equal(t, 1, resp.ByMethod["GEO"])
	require.Equal(t, 1, resp.ByMethod["UNRESOLVED"])
}

func TestAssignmentLookup(t *testing.T) {
	s := testServer(t)

	rr := get(t, s, "/api/assignments/s1")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp AssignmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.StoreID)
	require.Equal(t, "Tienda Centro", resp.StoreName)
	require.Equal(t, "GEO", resp.Method)

	rr = get(t, s, "/api/assignments/nope")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStoreAssignments(t *testing.T) {
	s := testServer(t)

	rr := get(t, s, "/api/stores/1/assignments")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp []AssignmentResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 2)

	rr = get(t, s, "/api/stores/99/assignments")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestConflictsEmptyIsJSONArray(t *testing.T) {
	s := testServer(t)
	rr := get(t, s, "/api/conflicts")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, "[]", rr.Body.String())
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	rr := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "web-test-run")
}
