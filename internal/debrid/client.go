// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package debrid lists the torrents held by a Real-Debrid account. The
// listing is used purely for filename verification after a triggered
// download; nothing is ever added or removed through this client.
package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/buildinfo"
)

const defaultBaseURL = "https://api.real-debrid.com/rest/1.0"

// Torrent is one held file in the account listing.
type Torrent struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
	Status   string `json:"status"`
	Bytes    int64  `json:"bytes"`
}

// Client talks to the Real-Debrid REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// NewClient creates a Real-Debrid client authenticated with the given token.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTorrents returns the account's current torrent list. An error means
// the listing is unavailable, which callers must treat differently from an
// empty account.
func (c *Client) ListTorrents(ctx context.Context) ([]Torrent, error) {
	endpoint := c.baseURL + "/torrents"
	logCurl(http.MethodGet, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing torrents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("torrent listing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading torrent listing: %w", err)
	}
	if len(body) == 0 {
		// The API occasionally answers 200 with an empty body during
		// maintenance windows. That is an outage, not an empty account.
		return nil, fmt.Errorf("torrent listing returned empty body")
	}

	var torrents []Torrent
	if err := json.Unmarshal(body, &torrents); err != nil {
		return nil, fmt.Errorf("decoding torrent listing: %w", err)
	}
	return torrents, nil
}

// logCurl emits the equivalent curl command at debug level with the bearer
// token redacted.
func logCurl(method, endpoint string) {
	if e := log.Debug(); e.Enabled() {
		e.Msgf("Equivalent curl command: curl -X %s --max-time 30 -H 'Authorization: Bearer ***' '%s'", method, endpoint)
	}
}
