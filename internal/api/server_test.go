// ABOUTME: Tests for the REST API handlers and instrumentation.
// ABOUTME: Drives the router with httptest against a temporary SQLite store.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/exist/internal/logging"
	"github.com/harperreed/exist/internal/models"
	"github.com/harperreed/exist/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "exist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewServer(db, logging.Discard()), db
}

// seed creates amy and harper; harper tracks steps (public) and weight (private).
func seed(t *testing.T, db *storage.DB) {
	t.Helper()

	body := models.NewAttributeGroup("body", "Body").WithPriority(1)
	require.NoError(t, db.CreateAttributeGroup(body))

	steps := models.NewAttribute("steps", "Steps", models.TypeInteger).WithGroup(body).WithPriority(1)
	weight := models.NewAttribute("weight", "Weight", models.TypeFloat).WithGroup(body).WithPriority(2).WithPrivateDefault(true)
	note := models.NewAttribute("note", "Note", models.TypeString).WithPriority(5)
	for _, a := range []*models.Attribute{steps, weight, note} {
		require.NoError(t, db.CreateAttribute(a))
	}

	require.NoError(t, db.CreateUser(models.NewUser("amy")))
	harper := models.NewUser("harper")
	require.NoError(t, db.CreateUser(harper))

	day := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		attr *models.Attribute
		raw  any
	}{{steps, 9000}, {weight, 80.5}, {note, "rainy"}} {
		ua := models.NewUserAttribute(harper.ID, tc.attr)
		require.NoError(t, db.CreateUserAttribute(ua))
		point := models.NewUserAttributeData(ua, day)
		require.NoError(t, point.SetValue(tc.raw))
		require.NoError(t, db.PutUserAttributeData(point))
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListUsers(t *testing.T) {
	s, db := setupServer(t)
	seed(t, db)

	for _, path := range []string{"/users/", "/users"} {
		rec := get(t, s, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `[{"username":"amy"},{"username":"harper"}]`, rec.Body.String())
	}
}

func TestListUsersEmpty(t *testing.T) {
	s, _ := setupServer(t)

	rec := get(t, s, "/users/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetUser(t *testing.T) {
	s, db := setupServer(t)
	seed(t, db)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/users/harper", http.StatusOK, `{"username":"harper"}`},
		{"/users/harper/", http.StatusOK, `{"username":"harper"}`},
		{"/users/ghost", http.StatusNotFound, `{"error":"not found"}`},
		{"/nowhere", http.StatusNotFound, `{"error":"not found"}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, s, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/users/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAttributesByGroup(t *testing.T) {
	s, db := setupServer(t)
	seed(t, db)

	rec := get(t, s, "/users/harper/attributes")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"body"`), strings.Index(body, `"ungrouped"`), "groups keep priority order")

	var grouped map[string]struct {
		Priority   int `json:"priority"`
		Attributes []struct {
			Name      string `json:"name"`
			Formatted string `json:"formatted"`
		} `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	require.Len(t, grouped["body"].Attributes, 2)
	assert.Equal(t, "steps", grouped["body"].Attributes[0].Name)
	assert.Equal(t, "80.5", grouped["body"].Attributes[1].Formatted)
	assert.Equal(t, "note", grouped["ungrouped"].Attributes[0].Name)
}

func TestAttributesIncludeInactive(t *testing.T) {
	s, db := setupServer(t)
	seed(t, db)

	harper, err := db.GetUser("harper")
	require.NoError(t, err)
	ua, err := db.GetUserAttribute(harper.ID, "note")
	require.NoError(t, err)
	ua.Active = false
	require.NoError(t, db.UpdateUserAttribute(ua))

	assert.NotContains(t, get(t, s, "/users/harper/attributes").Body.String(), "ungrouped")
	assert.Contains(t, get(t, s, "/users/harper/attributes?all=1").Body.String(), "ungrouped")
}

func TestScore(t *testing.T) {
	s, db := setupServer(t)
	seed(t, db)

	rec := get(t, s, "/users/harper/score")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Score      float64 `json:"score"`
		Attributes []struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		} `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Strings never count; private weight still counts toward the score
	// but is left out of the public list.
	assert.InDelta(t, 9080.5, resp.Score, 0.0001)
	require.Len(t, resp.Attributes, 1)
	assert.Equal(t, "steps", resp.Attributes[0].Name)
	assert.EqualValues(t, 9000, resp.Attributes[0].Value)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/users/ghost/score").Code)
}

func TestHealthz(t *testing.T) {
	s, _ := setupServer(t)

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsRecordsRouteTemplates(t *testing.T) {
	s, db := setupServer(t)
	seed(t, db)

	get(t, s, "/users/harper")
	get(t, s, "/users/amy")
	get(t, s, "/users/ghost")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `exist_http_requests_total{method="GET",route="/users/{username}",status="200"} 2`)
	assert.Contains(t, body, `exist_http_requests_total{method="GET",route="/users/{username}",status="404"} 1`)
	assert.Contains(t, body, "exist_http_inflight_requests 0")
	assert.NotContains(t, body, `route="/metrics"`)
	assert.NotContains(t, body, "harper")
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	s, _ := setupServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("server did not shut down")
	}
}
