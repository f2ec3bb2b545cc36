// Package pipeline takes raw spots from either acquisition path through
// classification, duplicate suppression, and the inclusion filter, then
// buffers admitted spots toward a sink and keeps the aggregate counters.
// All state is owned by one Pipeline value and mutated from a single
// ingestion goroutine.
package pipeline

import (
	"log"
	"time"

	"dxanalyzer/bandplan"
	"dxanalyzer/spot"
)

const (
	// flushThreshold is the buffered-spot count that triggers a sink flush.
	flushThreshold = 10
	// snapshotEvery is the admitted-spot cadence for counter snapshots.
	snapshotEvery = 1000
)

// Sink receives committed spots and counter snapshots. The pipeline never
// touches the filesystem itself; persistence lives behind this interface.
type Sink interface {
	Append(spot.Classified) error
	Flush() error
	Snapshot(*Counters) error
}

// Stats are the running ingest tallies, exposed for periodic logging.
type Stats struct {
	Received   int
	Duplicates int
	Excluded   int
	Admitted   int
}

// Pipeline is the single-writer ingestion core.
type Pipeline struct {
	classifier *bandplan.Classifier
	cache      *dedupCache
	counters   *Counters
	sink       Sink
	buffer     []spot.Classified
	now        func() time.Time
	stats      Stats
}

// New builds a pipeline over the given classifier and sink with the
// default dedup windows.
func New(classifier *bandplan.Classifier, sink Sink) *Pipeline {
	return NewWithWindows(classifier, sink, admissionWindow, entryExpiry)
}

// NewWithWindows builds a pipeline with configured dedup windows.
func NewWithWindows(classifier *bandplan.Classifier, sink Sink, window, expiry time.Duration) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		cache:      newDedupCache(window, expiry),
		counters:   NewCounters(),
		sink:       sink,
		buffer:     make([]spot.Classified, 0, flushThreshold),
		now:        time.Now,
	}
}

// Counters exposes the aggregate state for snapshots and final reporting.
func (p *Pipeline) Counters() *Counters {
	return p.counters
}

// Stats returns a copy of the running tallies.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Ingest runs one raw spot through classify, dedup, filter, and count.
// Order matters: dedup precedes the inclusion filter, so an excluded spot
// still claims its dedup slot and a later in-window duplicate of it stays
// suppressed.
func (p *Pipeline) Ingest(raw spot.Raw) {
	p.stats.Received++

	mode, band, region := p.classifier.Classify(raw.Frequency, raw.Comment)
	classified := spot.Classified{Raw: raw, Mode: mode, Band: band, Region: region}

	if !p.cache.Admit(raw.DedupKey(), p.now()) {
		p.stats.Duplicates++
		return
	}
	if !p.classifier.ShouldInclude(raw.Frequency, mode) {
		p.stats.Excluded++
		log.Printf("Pipeline: excluded %s [%s/%s]", raw.String(), mode, band)
		return
	}

	p.counters.Increment(raw.Frequency, mode, band)
	p.stats.Admitted++
	p.buffer = append(p.buffer, classified)
	if len(p.buffer) >= flushThreshold {
		p.flushBuffer()
	}
	if p.stats.Admitted%snapshotEvery == 0 {
		if err := p.sink.Snapshot(p.counters); err != nil {
			log.Printf("Pipeline: snapshot failed: %v", err)
		}
	}
}

// flushBuffer hands the buffered spots to the sink. Append errors drop the
// affected spot with a log line; counters already include it, so totals
// stay an upper bound on what the sink persisted.
func (p *Pipeline) flushBuffer() {
	for _, classified := range p.buffer {
		if err := p.sink.Append(classified); err != nil {
			log.Printf("Pipeline: append failed for %s: %v", classified.Raw.String(), err)
		}
	}
	p.buffer = p.buffer[:0]
	if err := p.sink.Flush(); err != nil {
		log.Printf("Pipeline: flush failed: %v", err)
	}
}

// Close drains the buffer and takes a final snapshot. Called once during
// graceful shutdown.
func (p *Pipeline) Close() error {
	p.flushBuffer()
	log.Printf("Pipeline: %d received, %d duplicates, %d excluded, %d admitted, %d dedup entries",
		p.stats.Received, p.stats.Duplicates, p.stats.Excluded, p.stats.Admitted, p.cache.Len())
	return p.sink.Snapshot(p.counters)
}
