package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/release-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	return &GitHubGateway{
		client: client,
		logger: log.New(io.Discard, "", 0),
	}, server
}

// writeReleasesPage writes n releases as JSON, one zip asset each.
func writeReleasesPage(t *testing.T, w http.ResponseWriter, n int) {
	t.Helper()
	page := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		page = append(page, map[string]any{
			"tag_name": fmt.Sprintf("v0.0.%d", i),
			"assets": []map[string]any{
				{"name": "tool.zip", "download_count": 1},
			},
		})
	}
	w.WriteHeader(http.StatusOK)
	assert.NoError(t, json.NewEncoder(w).Encode(page))
}

func TestGitHubGateway_FetchReleases_Pagination(t *testing.T) {
	// Page lengths served in order; a page shorter than 100 must be the
	// last one requested.
	pageLengths := []int{100, 100, 5}
	var requestedPages []int

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/repos/o/r/releases")
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		assert.NoError(t, err)
		requestedPages = append(requestedPages, page)
		if !assert.LessOrEqual(t, page, len(pageLengths), "requested a page past the short page") {
			page = len(pageLengths)
		}
		writeReleasesPage(t, w, pageLengths[page-1])
	})
	gateway, _ := setupTestGateway(t, handler)

	releases, err := gateway.FetchReleases(context.Background(), "o", "r")

	require.NoError(t, err)
	assert.Len(t, releases, 205)
	assert.Equal(t, []int{1, 2, 3}, requestedPages)
}

func TestGitHubGateway_FetchReleases_EmptyFirstPage(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeReleasesPage(t, w, 0)
	})
	gateway, _ := setupTestGateway(t, handler)

	releases, err := gateway.FetchReleases(context.Background(), "o", "r")

	require.NoError(t, err)
	assert.Empty(t, releases)
	assert.Equal(t, 1, requests)
}

func TestGitHubGateway_FetchReleases_MapsAssets(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `[{"tag_name": "v1.0.0", "assets": [
			{"name": "tool-linux.tar.gz", "download_count": 42},
			{"name": "tool-windows.zip", "download_count": 17}
		]}]`)
	})
	gateway, _ := setupTestGateway(t, handler)

	releases, err := gateway.FetchReleases(context.Background(), "o", "r")

	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "v1.0.0", releases[0].TagName)
	assert.Equal(t, []domain.Asset{
		{Name: "tool-linux.tar.gz", DownloadCount: 42},
		{Name: "tool-windows.zip", DownloadCount: 17},
	}, releases[0].Assets)
}

func TestGitHubGateway_FetchReleases_PropagatesErrors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	gateway, _ := setupTestGateway(t, handler)

	_, err := gateway.FetchReleases(context.Background(), "o", "r")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list releases for o/r")
}

func TestGitHubGateway_FetchClones(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedStatus domain.CloneStatus
		expectedClones []domain.CloneStat
	}{
		{
			name: "happy path - timestamps truncated to dates",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.URL.Path, "/repos/o/r/traffic/clones")
				assert.Equal(t, "day", r.URL.Query().Get("per"))
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"count": 11, "uniques": 5, "clones": [
					{"timestamp": "2026-08-20T00:00:00Z", "count": 4, "uniques": 2},
					{"timestamp": "2026-08-21T00:00:00Z", "count": 7, "uniques": 3}
				]}`)
			},
			expectedStatus: domain.CloneFetchOK,
			expectedClones: []domain.CloneStat{
				{Date: "2026-08-20", Count: 4},
				{Date: "2026-08-21", Count: 7},
			},
		},
		{
			name: "forbidden - traffic requires push access",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"message": "Must have push access to repository"}`)
			},
			expectedStatus: domain.CloneFetchUnsupported,
		},
		{
			name: "not found",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expectedStatus: domain.CloneFetchUnsupported,
		},
		{
			name: "server error is transient",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "boom"}`)
			},
			expectedStatus: domain.CloneFetchTransient,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, _ := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))

			traffic := gateway.FetchClones(context.Background(), "o", "r")

			assert.Equal(t, tc.expectedStatus, traffic.Status)
			if tc.expectedClones == nil {
				assert.Empty(t, traffic.Clones)
			} else {
				assert.Equal(t, tc.expectedClones, traffic.Clones)
			}
		})
	}
}
