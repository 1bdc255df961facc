// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import "fmt"

// MediaKind identifies which tracker a wanted item came from.
type MediaKind string

const (
	MediaKindMovie   MediaKind = "movie"
	MediaKindEpisode MediaKind = "episode"
)

// WantedItem is one movie or episode the tracker has flagged as missing.
// Items are produced fresh on every poll and never retained across cycles.
type WantedItem struct {
	ID            int64
	Kind          MediaKind
	Title         string
	Year          int
	SeriesTitle   string
	SeasonNumber  int
	EpisodeNumber int
	ImdbID        string
	TvdbID        int64
}

// Key returns the identifier used by the skip-cache. Kinds are namespaced so
// a movie and an episode sharing a numeric ID never collide.
func (w WantedItem) Key() string {
	return fmt.Sprintf("%s_%d", w.Kind, w.ID)
}

// DisplayTitle renders the human-readable label used in logs and notifications.
func (w WantedItem) DisplayTitle() string {
	switch w.Kind {
	case MediaKindEpisode:
		label := fmt.Sprintf("%s S%02dE%02d", w.SeriesTitle, w.SeasonNumber, w.EpisodeNumber)
		if w.Title != "" {
			label += " - " + w.Title
		}
		return label
	default:
		if w.Year > 0 {
			return fmt.Sprintf("%s (%d)", w.Title, w.Year)
		}
		return w.Title
	}
}

// Wire shapes for the v3 wanted/missing endpoint.

type wantedResponse struct {
	Records []wantedRecord `json:"records"`
}

type wantedRecord struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Year          int           `json:"year"`
	ImdbID        string        `json:"imdbId"`
	SeasonNumber  int           `json:"seasonNumber"`
	EpisodeNumber int           `json:"episodeNumber"`
	Series        *seriesRecord `json:"series"`
}

type seriesRecord struct {
	Title  string `json:"title"`
	ImdbID string `json:"imdbId"`
	TvdbID int64  `json:"tvdbId"`
}
