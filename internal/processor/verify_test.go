// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/streamdarr/streamdarr/internal/debrid"
	"github.com/streamdarr/streamdarr/internal/streams"
)

func newVerifyService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(testConfig(), NewSkipCache(), nil, &fakeSearch{}, &fakeProber{}, opts...)
}

func TestVerify_EmptyURLMakesNoNetworkCalls(t *testing.T) {
	prober := &fakeProber{}
	lister := &fakeLister{}
	svc := NewService(testConfig(), NewSkipCache(), nil, &fakeSearch{}, prober, WithDebridLister(lister))

	ok := svc.verify(context.Background(), streams.Candidate{Title: "no url"}, "Test Item")

	assert.False(t, ok)
	assert.Empty(t, prober.calls)
	assert.Zero(t, lister.calls)
}

func TestVerify_TriggerOnlyModeTrustsProbe(t *testing.T) {
	svc := newVerifyService(t)

	ok := svc.verify(context.Background(), cand("http://a/1", "a.mkv"), "Test Item")

	assert.True(t, ok, "without a lister a successful probe is a success")
}

func TestVerify_ProbeFailure(t *testing.T) {
	prober := &fakeProber{failFor: map[string]error{"http://a/1": errors.New("404")}}
	lister := &fakeLister{}
	svc := NewService(testConfig(), NewSkipCache(), nil, &fakeSearch{}, prober, WithDebridLister(lister))

	ok := svc.verify(context.Background(), cand("http://a/1", "a.mkv"), "Test Item")

	assert.False(t, ok)
	assert.Zero(t, lister.calls, "listing is never fetched when the trigger fails")
}

func TestVerify_NoFilenameTrustsProbe(t *testing.T) {
	lister := &fakeLister{}
	svc := newVerifyService(t, WithDebridLister(lister))

	ok := svc.verify(context.Background(), cand("http://a/1", ""), "Test Item")

	assert.True(t, ok)
	assert.Zero(t, lister.calls, "nothing to match against, so no listing fetch")
}

func TestVerify_FilenameMatching(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		held     []string
		want     bool
	}{
		{
			name:     "exact_match",
			filename: "Show.S01E01.1080p.mkv",
			held:     []string{"Show.S01E01.1080p.mkv"},
			want:     true,
		},
		{
			name:     "case_insensitive",
			filename: "Show.S01E01.mkv",
			held:     []string{"show.s01e01.mkv"},
			want:     true,
		},
		{
			name:     "held_name_extends_candidate",
			filename: "Show.S01E01.mkv",
			held:     []string{"show.s01e01.mkv.ignored_suffix"},
			want:     true,
		},
		{
			name:     "candidate_extends_held_name",
			filename: "Show.S01E01.mkv.extra",
			held:     []string{"show.s01e01.mkv"},
			want:     true,
		},
		{
			name:     "no_match",
			filename: "Show.S01E01.mkv",
			held:     []string{"Other.Movie.2020.mkv", "Another.File.mkv"},
			want:     false,
		},
		{
			name:     "empty_held_names_are_skipped",
			filename: "Show.S01E01.mkv",
			held:     []string{"", ""},
			want:     false,
		},
		{
			name:     "empty_listing",
			filename: "Show.S01E01.mkv",
			held:     nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			torrents := make([]debrid.Torrent, 0, len(tt.held))
			for i, name := range tt.held {
				torrents = append(torrents, debrid.Torrent{ID: string(rune('a' + i)), Filename: name})
			}
			lister := &fakeLister{torrents: torrents}
			svc := newVerifyService(t, WithDebridLister(lister))

			ok := svc.verify(context.Background(), cand("http://a/1", tt.filename), "Test Item")

			assert.Equal(t, tt.want, ok)
			assert.Equal(t, 1, lister.calls, "exactly one listing fetch per verification")
		})
	}
}

func TestVerify_ListingErrorFailsCandidate(t *testing.T) {
	lister := &fakeLister{err: errors.New("service unavailable")}
	svc := newVerifyService(t, WithDebridLister(lister))

	ok := svc.verify(context.Background(), cand("http://a/1", "a.mkv"), "Test Item")

	assert.False(t, ok, "an unavailable listing must not count as verified")
}

func TestVerify_CancelledDuringSettleWait(t *testing.T) {
	lister := &fakeLister{torrents: []debrid.Torrent{{ID: "1", Filename: "a.mkv"}}}
	svc := newVerifyService(t, WithDebridLister(lister))
	svc.sleep = func(ctx context.Context, d time.Duration) bool { return false }

	ok := svc.verify(context.Background(), cand("http://a/1", "a.mkv"), "Test Item")

	assert.False(t, ok)
	assert.Zero(t, lister.calls, "no listing fetch after an interrupted wait")
}
