// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package streams

// Candidate is one ranked, cached result from the stream index. The list
// order is the index's own ranking and is consumed as-is, never re-sorted.
type Candidate struct {
	Title    string
	URL      string
	Filename string
	Quality  string
}

// Wire shapes for the Stremio stream endpoint.

type streamResponse struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Name          string         `json:"name"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	URL           string         `json:"url"`
	InfoHash      string         `json:"infoHash"`
	BehaviorHints *behaviorHints `json:"behaviorHints"`
}

type behaviorHints struct {
	Filename  string `json:"filename"`
	VideoHash string `json:"videoHash"`
	VideoSize int64  `json:"videoSize"`
}
