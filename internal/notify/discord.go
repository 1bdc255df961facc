// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notify delivers processing outcomes to a Discord webhook.
// Successes are sent immediately as individual embeds; failures are batched
// by the caller and flushed as one summary embed per polling cycle.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/buildinfo"
	"github.com/streamdarr/streamdarr/internal/domain"
)

const (
	colorGreen = 0x00FF00
	colorRed   = 0xFF0000

	// Discord caps embed field values at 1024 characters.
	maxFieldLength = 1024
)

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Discord posts embeds to a single webhook URL.
type Discord struct {
	webhookURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewDiscord creates a webhook notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// NotifySuccess sends one green embed for a verified download.
func (d *Discord) NotifySuccess(ctx context.Context, kind, title string, details domain.SuccessDetails) error {
	e := embed{
		Title:       "✓ " + title,
		Description: fmt.Sprintf("Successfully added %s", kind),
		Color:       colorGreen,
		Timestamp:   d.now().UTC().Format(time.RFC3339),
	}

	if details.Quality != "" {
		e.Fields = append(e.Fields, embedField{Name: "Quality", Value: details.Quality, Inline: true})
	}
	if details.ImdbID != "" {
		e.Fields = append(e.Fields, embedField{Name: "IMDB", Value: details.ImdbID, Inline: true})
	}
	if details.StreamTitle != "" {
		e.Fields = append(e.Fields, embedField{Name: "Stream", Value: details.StreamTitle, Inline: false})
	}

	if err := d.send(ctx, e); err != nil {
		return err
	}
	log.Info().Str("kind", kind).Str("title", title).Msg("Sent Discord success notification")
	return nil
}

// SendFailureSummary sends one red embed summarizing all failures from a
// cycle, grouped by media kind with counts. An empty record list is a no-op.
func (d *Discord) SendFailureSummary(ctx context.Context, records []domain.FailureRecord) error {
	if len(records) == 0 {
		return nil
	}

	grouped := make(map[string][]domain.FailureRecord)
	for _, rec := range records {
		grouped[rec.Kind] = append(grouped[rec.Kind], rec)
	}

	kinds := make([]string, 0, len(grouped))
	for kind := range grouped {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	e := embed{
		Title:     fmt.Sprintf("✗ %d item(s) failed this cycle", len(records)),
		Color:     colorRed,
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}

	for _, kind := range kinds {
		recs := grouped[kind]
		var b strings.Builder
		for _, rec := range recs {
			line := fmt.Sprintf("**%s** — %s", rec.Title, rec.Reason)
			if rec.Details != "" {
				line += fmt.Sprintf(" (%s)", rec.Details)
			}
			line += "\n"
			if b.Len()+len(line) > maxFieldLength {
				b.WriteString("…")
				break
			}
			b.WriteString(line)
		}
		e.Fields = append(e.Fields, embedField{
			Name:  fmt.Sprintf("%ss (%d)", kind, len(recs)),
			Value: strings.TrimRight(b.String(), "\n"),
		})
	}

	if err := d.send(ctx, e); err != nil {
		return err
	}
	log.Info().Int("failures", len(records)).Msg("Sent Discord failure summary")
	return nil
}

func (d *Discord) send(ctx context.Context, e embed) error {
	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	// Discord rate limits webhooks aggressively; retry transient failures
	// with backoff instead of dropping the notification.
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("User-Agent", buildinfo.UserAgent)

			resp, err := d.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)

			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return nil
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("webhook returned status %d", resp.StatusCode)
			default:
				return retry.Unrecoverable(fmt.Errorf("webhook returned status %d", resp.StatusCode))
			}
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
