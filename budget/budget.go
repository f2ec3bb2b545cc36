// Package budget bounds a collection run by elapsed wall-clock time and
// cumulative output size. The acquisition loops consult the oracle
// between iterations and shut down gracefully when either limit trips.
package budget

import (
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// Oracle answers "should the run keep going". Size checks walk the
// output directory, so they are throttled to once per checkInterval.
type Oracle struct {
	start       time.Time
	maxDuration time.Duration
	maxBytes    int64
	outputDir   string

	now           func() time.Time
	lastSizeCheck time.Time
	lastSize      int64
}

const checkInterval = 60 * time.Second

// New starts the clock on a run bounded by maxDuration and maxBytes of
// output under outputDir. A zero limit disables that bound.
func New(outputDir string, maxDuration time.Duration, maxBytes int64) *Oracle {
	o := &Oracle{
		maxDuration: maxDuration,
		maxBytes:    maxBytes,
		outputDir:   outputDir,
		now:         time.Now,
	}
	o.start = o.now()
	return o
}

// Exceeded reports whether either budget has been spent. The first trip
// is logged with the reason.
func (o *Oracle) Exceeded() bool {
	now := o.now()
	if o.maxDuration > 0 && now.Sub(o.start) >= o.maxDuration {
		log.Printf("Budget: elapsed %s reached the %s limit",
			now.Sub(o.start).Round(time.Second), o.maxDuration)
		return true
	}
	if o.maxBytes <= 0 {
		return false
	}
	if now.Sub(o.lastSizeCheck) >= checkInterval {
		o.lastSizeCheck = now
		o.lastSize = dirSize(o.outputDir)
	}
	if o.lastSize >= o.maxBytes {
		log.Printf("Budget: output size %s reached the %s limit",
			humanize.Bytes(uint64(o.lastSize)), humanize.Bytes(uint64(o.maxBytes)))
		return true
	}
	return false
}

// Elapsed returns time spent so far.
func (o *Oracle) Elapsed() time.Duration {
	return o.now().Sub(o.start)
}

// OutputSize returns the most recently measured output size.
func (o *Oracle) OutputSize() int64 {
	return o.lastSize
}

// dirSize sums regular-file sizes under dir. Walk errors are skipped; a
// transiently unreadable file must not end the run.
func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
