// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package arr wraps the Radarr and Sonarr v3 HTTP APIs behind one client
// parameterized by media kind. Both trackers expose near-identical contracts
// (wanted list, item detail, monitored flag), so a single client avoids
// branching on kind everywhere downstream.
package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/buildinfo"
)

const (
	defaultTimeout = 30 * time.Second
	wantedPageSize = 1000
)

// Client talks to a single Radarr or Sonarr instance.
type Client struct {
	kind       MediaKind
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a tracker client for the given media kind.
func NewClient(kind MediaKind, baseURL, apiKey string) *Client {
	return &Client{
		kind:       kind,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Kind returns the media kind this client serves.
func (c *Client) Kind() MediaKind {
	return c.kind
}

// ListWanted fetches the current wanted/missing list in tracker order.
func (c *Client) ListWanted(ctx context.Context) ([]WantedItem, error) {
	params := url.Values{}
	params.Set("pageSize", fmt.Sprintf("%d", wantedPageSize))
	if c.kind == MediaKindEpisode {
		params.Set("includeSeries", "true")
	}

	endpoint := fmt.Sprintf("%s/api/v3/wanted/missing?%s", c.baseURL, params.Encode())

	var resp wantedResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetching wanted %ss: %w", c.kind, err)
	}

	items := make([]WantedItem, 0, len(resp.Records))
	for _, rec := range resp.Records {
		items = append(items, c.toWantedItem(rec))
	}
	return items, nil
}

func (c *Client) toWantedItem(rec wantedRecord) WantedItem {
	item := WantedItem{
		ID:    rec.ID,
		Kind:  c.kind,
		Title: rec.Title,
		Year:  rec.Year,
	}
	switch c.kind {
	case MediaKindEpisode:
		item.SeasonNumber = rec.SeasonNumber
		item.EpisodeNumber = rec.EpisodeNumber
		if rec.Series != nil {
			item.SeriesTitle = rec.Series.Title
			item.ImdbID = rec.Series.ImdbID
			item.TvdbID = rec.Series.TvdbID
		}
	default:
		item.ImdbID = rec.ImdbID
	}
	return item
}

// GetDetail fetches the raw item document. The full document is needed
// because the monitored flag update is a whole-object PUT.
func (c *Client) GetDetail(ctx context.Context, id int64) (map[string]any, error) {
	var detail map[string]any
	if err := c.getJSON(ctx, c.detailURL(id), &detail); err != nil {
		return nil, fmt.Errorf("fetching %s %d: %w", c.kind, id, err)
	}
	return detail, nil
}

// SetMonitored flips the monitored flag on the tracker. Used after a verified
// success so the item drops off the wanted list.
func (c *Client) SetMonitored(ctx context.Context, id int64, monitored bool) error {
	detail, err := c.GetDetail(ctx, id)
	if err != nil {
		return err
	}
	detail["monitored"] = monitored

	body, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encoding %s %d: %w", c.kind, id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.detailURL(id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating %s %d: %w", c.kind, id, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("updating %s %d: unexpected status %d", c.kind, id, resp.StatusCode)
	}

	log.Debug().
		Str("kind", string(c.kind)).
		Int64("id", id).
		Bool("monitored", monitored).
		Msg("Updated monitored flag")
	return nil
}

func (c *Client) detailURL(id int64) string {
	switch c.kind {
	case MediaKindEpisode:
		return fmt.Sprintf("%s/api/v3/episode/%d", c.baseURL, id)
	default:
		return fmt.Sprintf("%s/api/v3/movie/%d", c.baseURL, id)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")
}
