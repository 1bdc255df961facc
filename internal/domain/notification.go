// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// SuccessDetails carries the context attached to a success notification.
type SuccessDetails struct {
	Quality     string
	ImdbID      string
	StreamTitle string
}

// FailureRecord is one entry in the per-cycle failure summary. Records are
// accumulated during a polling cycle and flushed as a single batched
// notification at cycle end.
type FailureRecord struct {
	Kind    string
	Title   string
	Reason  string
	Details string
}
