// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package streams

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/buildinfo"
)

// Prober triggers a debrid download by issuing a HEAD request against a
// playback URL. The request causes the backend to start hosting the file
// without this process paying the cost of streaming it; no body is ever read.
type Prober struct {
	httpClient *http.Client
}

// NewProber creates a prober with the standard probe timeout. Redirects are
// followed since playback URLs typically bounce through the debrid CDN.
func NewProber() *Prober {
	return &Prober{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Probe issues the trigger request. A nil return means the backend accepted
// the trigger with a 2xx status.
func (p *Prober) Probe(ctx context.Context, playbackURL string) error {
	display := playbackURL
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	log.Debug().Str("url", display).Msg("Triggering download via HEAD probe")

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, playbackURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probing playback url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
