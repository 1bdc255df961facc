// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package processor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/streamdarr/streamdarr/internal/arr"
	"github.com/streamdarr/streamdarr/internal/streams"
)

// processItem runs the per-item state machine: search for cached candidates,
// try them in ranked order under the attempt budget, and stop at the first
// verified success.
func (s *Service) processItem(ctx context.Context, src WantedSource, item arr.WantedItem) Outcome {
	label := item.DisplayTitle()

	if item.ImdbID == "" {
		log.Warn().Str("title", label).Msg("No IMDB ID, cannot query stream index")
		return Outcome{
			Status:  StatusUnusable,
			Reason:  ReasonNoContentID,
			Details: fmt.Sprintf("%s id %d", item.Kind, item.ID),
		}
	}

	log.Info().Str("title", label).Str("imdb", item.ImdbID).Msg("Processing wanted item")

	candidates := s.searchCandidates(ctx, item)
	if len(candidates) == 0 {
		log.Warn().Str("title", label).Msg("No cached streams found")
		return Outcome{
			Status:  StatusUnusable,
			Reason:  ReasonNoCandidates,
			Details: fmt.Sprintf("imdb %s", item.ImdbID),
		}
	}

	log.Info().Str("title", label).Int("candidates", len(candidates)).Msg("Found cached streams")

	attempts := 0
	for i := range candidates {
		if attempts >= s.cfg.MaxAttempts {
			break
		}
		attempts++

		candidate := candidates[i]
		log.Info().
			Str("title", label).
			Int("attempt", attempts).
			Str("stream", candidate.Title).
			Msg("Trying candidate")

		if !s.verify(ctx, candidate, label) {
			continue
		}

		s.unmonitor(ctx, src, item)
		return Outcome{
			Status:    StatusSuccess,
			Candidate: &candidate,
			Attempts:  attempts,
		}
	}

	log.Error().Str("title", label).Int("attempts", attempts).Msg("All candidates failed verification")
	return Outcome{
		Status:   StatusExhausted,
		Reason:   ReasonExhausted,
		Details:  fmt.Sprintf("imdb %s, %d candidate(s) tried", item.ImdbID, attempts),
		Attempts: attempts,
	}
}

// searchCandidates queries the stream index. Search errors degrade to an
// empty candidate list; they never abort the cycle.
func (s *Service) searchCandidates(ctx context.Context, item arr.WantedItem) []streams.Candidate {
	var (
		candidates []streams.Candidate
		err        error
	)
	switch item.Kind {
	case arr.MediaKindEpisode:
		candidates, err = s.search.SearchEpisode(ctx, item.ImdbID, item.SeasonNumber, item.EpisodeNumber)
	default:
		candidates, err = s.search.SearchMovie(ctx, item.ImdbID)
	}
	if err != nil {
		log.Error().Err(err).Str("imdb", item.ImdbID).Msg("Stream search failed")
		return nil
	}
	return candidates
}

// unmonitor clears the wanted flag upstream after a verified success.
// Best-effort: a failed update is logged but never downgrades the outcome.
func (s *Service) unmonitor(ctx context.Context, src WantedSource, item arr.WantedItem) {
	if err := src.SetMonitored(ctx, item.ID, false); err != nil {
		log.Warn().Err(err).Str("title", item.DisplayTitle()).Msg("Failed to unmonitor item, it may be re-listed next cycle")
		return
	}
	log.Info().Str("title", item.DisplayTitle()).Msg("Unmonitored item upstream")
}
