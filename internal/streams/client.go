// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package streams queries an AIOStreams-compatible Stremio endpoint for
// cached stream candidates and probes playback URLs to trigger debrid
// downloads.
package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moistari/rls"
	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/buildinfo"
)

const defaultTimeout = 30 * time.Second

// Client queries the stream index. Results come back pre-ranked and
// pre-filtered to cached entries; the client only maps and filters, it never
// re-ranks.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a stream index client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SearchMovie returns cached candidates for a movie by IMDB ID.
func (c *Client) SearchMovie(ctx context.Context, imdbID string) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/stream/movie/%s.json", c.baseURL, imdbID)
	return c.search(ctx, endpoint)
}

// SearchEpisode returns cached candidates for one episode. The endpoint
// encodes season and episode into the Stremio ID: {imdb}:{season}:{episode}.
func (c *Client) SearchEpisode(ctx context.Context, imdbID string, season, episode int) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/stream/series/%s:%d:%d.json", c.baseURL, imdbID, season, episode)
	return c.search(ctx, endpoint)
}

func (c *Client) search(ctx context.Context, endpoint string) ([]Candidate, error) {
	logCurl(http.MethodGet, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying stream index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("stream index returned status %d", resp.StatusCode)
	}

	var sr streamResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding stream response: %w", err)
	}

	return filterCached(sr.Streams), nil
}

// filterCached keeps only streams the index itself marks as already cached on
// the debrid backend (lightning bolt or RD marker in the display name) and
// that carry a video hash hint. Order is preserved.
func filterCached(in []stream) []Candidate {
	candidates := make([]Candidate, 0, len(in))
	for _, s := range in {
		name := s.Name
		if name == "" {
			name = s.Title
		}

		if !strings.Contains(name, "⚡") && !strings.Contains(name, "RD+") && !strings.Contains(name, "[RD]") {
			continue
		}
		if s.BehaviorHints == nil || s.BehaviorHints.VideoHash == "" {
			log.Debug().Str("stream", name).Msg("Skipping stream without videoHash")
			continue
		}

		candidates = append(candidates, Candidate{
			Title:    name,
			URL:      s.URL,
			Filename: s.BehaviorHints.Filename,
			Quality:  qualityTag(s.Description, name, s.BehaviorHints.Filename),
		})
	}
	return candidates
}

// qualityTag extracts a resolution tag from whichever field parses first.
// Stream display names are decorated with emoji and addon branding, so the
// filename is usually the cleanest source for release parsing.
func qualityTag(sources ...string) string {
	for _, src := range sources {
		if src == "" {
			continue
		}
		if r := rls.ParseString(src); r.Resolution != "" {
			return r.Resolution
		}
	}

	// Marker scan fallback for names rls cannot parse.
	for _, src := range sources {
		upper := strings.ToUpper(src)
		switch {
		case strings.Contains(upper, "2160P") || strings.Contains(upper, "4K"):
			return "2160p"
		case strings.Contains(upper, "1080P"):
			return "1080p"
		case strings.Contains(upper, "720P"):
			return "720p"
		}
	}
	return "480p"
}

// logCurl emits the equivalent curl command at debug level, mirroring what
// an operator would run to reproduce the request by hand.
func logCurl(method, endpoint string, headers ...string) {
	if e := log.Debug(); e.Enabled() {
		parts := []string{"curl", "-X", method, "--max-time", "30"}
		for _, h := range headers {
			parts = append(parts, "-H", fmt.Sprintf("'%s'", h))
		}
		parts = append(parts, fmt.Sprintf("'%s'", endpoint))
		e.Msgf("Equivalent curl command: %s", strings.Join(parts, " "))
	}
}
