// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package streams

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMovie_FiltersToCachedStreams(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"streams": [
				{
					"name": "[RD⚡] Addon 1080p",
					"url": "http://debrid/play/1",
					"behaviorHints": {"filename": "Movie.2021.1080p.WEB-DL.mkv", "videoHash": "abc123"}
				},
				{
					"name": "Addon 2160p uncached",
					"url": "http://debrid/play/2",
					"behaviorHints": {"filename": "Movie.2021.2160p.mkv", "videoHash": "def456"}
				},
				{
					"name": "RD+ Addon 720p no hash",
					"url": "http://debrid/play/3",
					"behaviorHints": {"filename": "Movie.2021.720p.mkv"}
				},
				{
					"name": "[RD] Addon second cached",
					"url": "http://debrid/play/4",
					"behaviorHints": {"filename": "Movie.2021.720p.x264.mkv", "videoHash": "ghi789"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	candidates, err := client.SearchMovie(context.Background(), "tt0123456")
	require.NoError(t, err)

	assert.Equal(t, "/stream/movie/tt0123456.json", gotPath)

	// Uncached and hash-less streams are dropped, index order is preserved.
	require.Len(t, candidates, 2)
	assert.Equal(t, "http://debrid/play/1", candidates[0].URL)
	assert.Equal(t, "Movie.2021.1080p.WEB-DL.mkv", candidates[0].Filename)
	assert.Equal(t, "1080p", candidates[0].Quality)
	assert.Equal(t, "http://debrid/play/4", candidates[1].URL)
	assert.Equal(t, "720p", candidates[1].Quality)
}

func TestSearchEpisode_EncodesSeasonAndEpisode(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"streams": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	candidates, err := client.SearchEpisode(context.Background(), "tt0999999", 3, 12)
	require.NoError(t, err)

	assert.Equal(t, "/stream/series/tt0999999:3:12.json", gotPath)
	assert.Empty(t, candidates)
}

func TestSearch_TitleFallbackWhenNameMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"streams": [
				{
					"title": "⚡ Cached Stream 1080p",
					"url": "http://debrid/play/1",
					"behaviorHints": {"filename": "Show.S01E01.1080p.mkv", "videoHash": "abc"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	candidates, err := client.SearchMovie(context.Background(), "tt1")
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "⚡ Cached Stream 1080p", candidates[0].Title)
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SearchMovie(context.Background(), "tt1")
	assert.ErrorContains(t, err, "status 502")
}

func TestQualityTag(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		want    string
	}{
		{
			name:    "filename_parses_cleanly",
			sources: []string{"", "⚡ Addon Stream", "Movie.2021.2160p.WEB-DL.x265.mkv"},
			want:    "2160p",
		},
		{
			name:    "marker_fallback_4k",
			sources: []string{"⚡ 4K HDR"},
			want:    "2160p",
		},
		{
			name:    "marker_fallback_720p",
			sources: []string{"stream 720P hevc"},
			want:    "720p",
		},
		{
			name:    "no_markers_default",
			sources: []string{"unlabeled stream"},
			want:    "480p",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualityTag(tt.sources...))
		})
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK, wantErr: false},
		{name: "no_content", status: http.StatusNoContent, wantErr: false},
		{name: "not_found", status: http.StatusNotFound, wantErr: true},
		{name: "server_error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := NewProber().Probe(context.Background(), server.URL+"/play/file.mkv")
			assert.Equal(t, http.MethodHead, gotMethod)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProbe_FollowsRedirects(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer redirecting.Close()

	err := NewProber().Probe(context.Background(), redirecting.URL)
	assert.NoError(t, err)
}
