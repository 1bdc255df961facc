// Copyright (c) 2025, the streamdarr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package processor

import (
	"sync"
	"time"
)

type skipEntry struct {
	at        time.Time
	succeeded bool
}

// SkipCache remembers the last processing outcome per item key so items are
// not reprocessed every cycle. Successful entries are permanent for the life
// of the process; failed entries expire after the retry window. State is
// memory-resident only and intentionally lost on restart.
type SkipCache struct {
	mu      sync.Mutex
	entries map[string]skipEntry
	now     func() time.Time
}

// NewSkipCache creates an empty cache.
func NewSkipCache() *SkipCache {
	return &SkipCache{
		entries: make(map[string]skipEntry),
		now:     time.Now,
	}
}

// ShouldSkip reports whether the item was already handled recently. Unknown
// keys are never skipped. Successful keys are always skipped. Failed keys are
// skipped only while the elapsed time is still under the retry window; at or
// past the window the item becomes eligible again.
func (c *SkipCache) ShouldSkip(key string, retryWindow time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	if entry.succeeded {
		return true
	}
	return c.now().Sub(entry.at) < retryWindow
}

// MarkProcessed records the outcome for a key, overwriting any prior entry
// with a fresh timestamp.
func (c *SkipCache) MarkProcessed(key string, succeeded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = skipEntry{at: c.now(), succeeded: succeeded}
}

// Stats summarizes the cache contents for observability.
type Stats struct {
	Total      int
	Successful int
	Failed     int
}

// Stats returns lifetime counts derived from the cache. Failure counts
// reflect only the latest outcome per key since MarkProcessed overwrites.
func (c *SkipCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Total: len(c.entries)}
	for _, entry := range c.entries {
		if entry.succeeded {
			stats.Successful++
		} else {
			stats.Failed++
		}
	}
	return stats
}
