// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWanted_Movies(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"records": [
				{"id": 101, "title": "First Movie", "year": 2021, "imdbId": "tt0000101"},
				{"id": 102, "title": "Second Movie", "year": 2019, "imdbId": ""}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(MediaKindMovie, server.URL, "secret-key")
	items, err := client.ListWanted(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/wanted/missing", gotPath)
	assert.Equal(t, "pageSize=1000", gotQuery)
	assert.Equal(t, "secret-key", gotAPIKey)

	require.Len(t, items, 2)
	assert.Equal(t, WantedItem{ID: 101, Kind: MediaKindMovie, Title: "First Movie", Year: 2021, ImdbID: "tt0000101"}, items[0])
	assert.Equal(t, "movie_101", items[0].Key())
	assert.Equal(t, "First Movie (2021)", items[0].DisplayTitle())
	assert.Empty(t, items[1].ImdbID)
}

func TestListWanted_EpisodesIncludeSeries(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"records": [
				{
					"id": 201, "title": "Pilot", "seasonNumber": 1, "episodeNumber": 2,
					"series": {"title": "Some Show", "imdbId": "tt0000201", "tvdbId": 998877}
				},
				{"id": 202, "title": "Orphan", "seasonNumber": 1, "episodeNumber": 3}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(MediaKindEpisode, server.URL, "key")
	items, err := client.ListWanted(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "includeSeries=true")
	require.Len(t, items, 2)

	assert.Equal(t, "Some Show", items[0].SeriesTitle)
	assert.Equal(t, "tt0000201", items[0].ImdbID)
	assert.Equal(t, int64(998877), items[0].TvdbID)
	assert.Equal(t, "episode_201", items[0].Key())
	assert.Equal(t, "Some Show S01E02 - Pilot", items[0].DisplayTitle())

	// Record without an embedded series carries no content identifier.
	assert.Empty(t, items[1].ImdbID)
}

func TestListWanted_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(MediaKindMovie, server.URL, "key")
	_, err := client.ListWanted(context.Background())
	assert.Error(t, err)
}

func TestSetMonitored_FetchesThenPutsWholeDocument(t *testing.T) {
	var putBody map[string]any
	var putPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/api/v3/movie/55", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": 55, "title": "Some Movie", "monitored": true, "qualityProfileId": 4}`))
		case http.MethodPut:
			putPath = r.URL.Path
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&putBody))
			w.WriteHeader(http.StatusAccepted)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	client := NewClient(MediaKindMovie, server.URL, "key")
	err := client.SetMonitored(context.Background(), 55, false)
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/movie/55", putPath)
	assert.Equal(t, false, putBody["monitored"])
	// The rest of the document must survive the round trip.
	assert.Equal(t, "Some Movie", putBody["title"])
	assert.Equal(t, float64(4), putBody["qualityProfileId"])
}

func TestSetMonitored_EpisodeEndpoint(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7, "monitored": true}`))
	}))
	defer server.Close()

	client := NewClient(MediaKindEpisode, server.URL, "key")
	err := client.SetMonitored(context.Background(), 7, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /api/v3/episode/7", "PUT /api/v3/episode/7"}, paths)
}

func TestSetMonitored_PutFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"id": 9, "monitored": true}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(MediaKindMovie, server.URL, "key")
	err := client.SetMonitored(context.Background(), 9, false)
	assert.ErrorContains(t, err, "unexpected status 400")
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient(MediaKindMovie, "http://radarr:7878/", "key")
	assert.Equal(t, "http://radarr:7878", client.baseURL)
}
