package pipeline

import (
	"log"
	"time"
)

const (
	// admissionWindow is how long a (call, frequency) pair stays
	// suppressed after being counted.
	admissionWindow = 600 * time.Second
	// entryExpiry bounds cache memory; it deliberately exceeds the
	// admission window so recently-suppressed keys are not forgotten
	// the moment they stop being duplicates.
	entryExpiry = 3600 * time.Second
	// sweepInterval spaces out full-map cleanup passes.
	sweepInterval = 300 * time.Second
)

// dedupCache is the time-windowed set behind duplicate suppression. It is
// mutated only from the pipeline's single ingestion path and needs no
// locking.
type dedupCache struct {
	window    time.Duration
	expiry    time.Duration
	entries   map[uint64]time.Time
	lastSweep time.Time
}

func newDedupCache(window, expiry time.Duration) *dedupCache {
	if window <= 0 {
		window = admissionWindow
	}
	if expiry <= 0 {
		expiry = entryExpiry
	}
	return &dedupCache{
		window:  window,
		expiry:  expiry,
		entries: make(map[uint64]time.Time),
	}
}

// Admit reports whether the key may pass. A key seen within the admission
// window is rejected; otherwise its timestamp is set to now. Rejected keys
// keep their original timestamp, so the window is measured from the last
// admitted sighting.
func (c *dedupCache) Admit(key uint64, now time.Time) bool {
	c.sweep(now)
	if last, ok := c.entries[key]; ok && now.Sub(last) < c.window {
		return false
	}
	c.entries[key] = now
	return true
}

// sweep drops entries older than the expiry. Runs at most once per
// sweepInterval regardless of ingest rate.
func (c *dedupCache) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now
	before := len(c.entries)
	for key, last := range c.entries {
		if now.Sub(last) > c.expiry {
			delete(c.entries, key)
		}
	}
	if removed := before - len(c.entries); removed > 0 {
		log.Printf("Dedup: swept %d expired entries, %d remain", removed, len(c.entries))
	}
}

// Len returns the current entry count.
func (c *dedupCache) Len() int {
	return len(c.entries)
}
