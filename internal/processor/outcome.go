// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package processor

import "github.com/streamdarr/streamdarr/internal/streams"

// Status is the terminal state of one item's processing attempt.
type Status string

const (
	// StatusSuccess means a candidate was triggered and verified.
	StatusSuccess Status = "success"
	// StatusExhausted means every tried candidate failed verification.
	StatusExhausted Status = "exhausted"
	// StatusUnusable means the item could not be attempted at all.
	StatusUnusable Status = "unusable"
)

// Failure reasons surfaced in notifications. Mutually exclusive per item.
const (
	ReasonNoContentID  = "No IMDB ID found"
	ReasonNoCandidates = "No cached streams available"
	ReasonExhausted    = "All candidates failed verification"
)

// Outcome is the ephemeral result of one orchestrator run for one item. It
// is consumed immediately by the cycle runner and never persisted.
type Outcome struct {
	Status    Status
	Reason    string
	Details   string
	Candidate *streams.Candidate
	Attempts  int
}

// Succeeded reports whether the terminal state is success.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}
