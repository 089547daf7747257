package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/assets"
	"github.com/phygital/internal/music"
)

// newCountingUpstream 搭建一个记录命中次数的假 Spotify 上游
func newCountingUpstream(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"tracks": map[string]any{
				"items": []map[string]any{
					{
						"id":   "4uLU6hMCjMI75M1A2tKUQC",
						"name": "Never Gonna Give You Up",
						"artists": []map[string]string{
							{"name": "Rick Astley"},
						},
						"duration_ms": 213573,
					},
				},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func setupSearchRouter(t *testing.T, musicClient *music.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := setupHandlerTestDB(t)
	api := NewAPI(gdb, assets.NewClient("", ""), musicClient, "")

	router := gin.New()
	router.GET("/api/music-search", api.SearchMusic)
	return router
}

func TestSearchMusicRejectsShortQuery(t *testing.T) {
	var hits atomic.Int64
	server := newCountingUpstream(t, &hits)

	client := music.NewClient("id", "secret")
	client.SetEndpoints(server.URL+"/token", server.URL+"/v1")
	router := setupSearchRouter(t, client)

	for _, query := range []string{"", "a", " a "} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/music-search?q="+url.QueryEscape(query), nil))
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", query, recorder.Code)
		}
	}

	// 过短的查询不允许触碰上游
	if hits.Load() != 0 {
		t.Fatalf("expected no upstream calls for short queries, got %d", hits.Load())
	}
}

func TestSearchMusicReturnsResults(t *testing.T) {
	var hits atomic.Int64
	server := newCountingUpstream(t, &hits)

	client := music.NewClient("id", "secret")
	client.SetEndpoints(server.URL+"/token", server.URL+"/v1")
	router := setupSearchRouter(t, client)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/music-search?q=rick", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var payload struct {
		Query   string        `json:"query"`
		Count   int           `json:"count"`
		Results []music.Track `json:"results"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Query != "rick" || payload.Count != 1 || len(payload.Results) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Results[0].Artist != "Rick Astley" {
		t.Fatalf("unexpected artist: %q", payload.Results[0].Artist)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected token exchange plus search call, got %d upstream hits", hits.Load())
	}
}

func TestSearchMusicUnconfiguredYieldsEmptyResults(t *testing.T) {
	router := setupSearchRouter(t, music.NewClient("", ""))

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/music-search?q=anything", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	var payload struct {
		Count   int           `json:"count"`
		Results []music.Track `json:"results"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Count != 0 || len(payload.Results) != 0 {
		t.Fatalf("expected empty results, got %+v", payload)
	}
}
