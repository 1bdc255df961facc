// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package processor

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/streams"
)

// verify triggers a candidate's playback URL and, when a debrid lister is
// configured, confirms the file actually landed in the account. A trigger
// without independent confirmation is not trusted once verification is
// available: a failed or unavailable listing means the candidate failed.
func (s *Service) verify(ctx context.Context, candidate streams.Candidate, label string) bool {
	if candidate.URL == "" {
		log.Debug().Str("stream", candidate.Title).Msg("Candidate has no playback URL, skipping")
		return false
	}

	s.metrics.RecordProbe()
	if err := s.prober.Probe(ctx, candidate.URL); err != nil {
		log.Error().Err(err).Str("title", label).Msg("Download trigger failed")
		s.metrics.RecordVerificationFailure()
		return false
	}
	log.Info().Str("title", label).Msg("Triggered download")

	if s.lister == nil {
		// Trigger-only mode: no way to verify, so trust the probe.
		return true
	}

	if candidate.Filename == "" {
		log.Debug().Str("title", label).Msg("No filename for verification, assuming success")
		return true
	}

	log.Info().
		Str("filename", candidate.Filename).
		Dur("settle", s.cfg.SettleDelay).
		Msg("Waiting before verifying in debrid account")
	if !s.sleep(ctx, s.cfg.SettleDelay) {
		return false
	}

	torrents, err := s.lister.ListTorrents(ctx)
	if err != nil {
		log.Error().Err(err).Str("title", label).Msg("Debrid listing unavailable, treating as unverified")
		s.metrics.RecordVerificationFailure()
		return false
	}

	want := strings.ToLower(candidate.Filename)
	for _, torrent := range torrents {
		held := strings.ToLower(torrent.Filename)
		if held == "" {
			continue
		}
		// Substring match in either direction tolerates truncated and
		// extended filenames from either source.
		if strings.Contains(held, want) || strings.Contains(want, held) {
			log.Info().Str("filename", torrent.Filename).Msg("Verified in debrid account")
			return true
		}
	}

	log.Warn().Str("filename", candidate.Filename).Msg("Not found in debrid account after trigger")
	s.metrics.RecordVerificationFailure()
	return false
}
