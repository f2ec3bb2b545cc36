// Package spot defines the raw and classified spot records flowing through
// the collector, plus callsign normalization and the dedup key hash.
package spot

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// SourceKind identifies which acquisition path produced a spot.
type SourceKind string

const (
	SourceNetwork SourceKind = "NETWORK" // telnet cluster feed
	SourceWeb     SourceKind = "WEB"     // scraped cluster web page
)

// UnknownSpotter is recorded when a source does not carry the reporting
// station (sh/dx history lines, most scraped tables).
const UnknownSpotter = "Unknown"

// Raw is a candidate spot as produced by an extractor, before
// classification. Frequency is always kHz; extractors convert MHz values
// before constructing a Raw.
type Raw struct {
	Spotter    string     // reporting station, UnknownSpotter if absent
	DXCall     string     // station reported as heard
	Frequency  float64    // kHz
	Comment    string     // free-form trailing text
	ObservedAt time.Time  // when the collector saw the report
	Source     SourceKind // NETWORK or WEB
}

// NewRaw builds a Raw with normalized callsigns and defaults applied.
func NewRaw(spotter, dxCall string, freqKHz float64, comment string, source SourceKind) Raw {
	spotter = NormalizeCallsign(spotter)
	if spotter == "" {
		spotter = UnknownSpotter
	}
	return Raw{
		Spotter:    spotter,
		DXCall:     NormalizeCallsign(dxCall),
		Frequency:  freqKHz,
		Comment:    strings.TrimSpace(comment),
		ObservedAt: time.Now().UTC(),
		Source:     source,
	}
}

// Classified is a Raw plus the classifier's verdict. Mode is one of CW,
// SSB, DIGITAL or UNKNOWN; Band and Region fall back to "UNKNOWN" rather
// than empty strings so downstream CSV rows stay uniform.
type Classified struct {
	Raw
	Mode   string
	Band   string
	Region string
}

// DedupKey hashes the normalized DX call and the integer kHz frequency.
// Two sightings of the same station on the same kilohertz yield the same
// key, so sub-kHz reading differences between sources do not defeat the
// admission window.
func (r Raw) DedupKey() uint64 {
	call := NormalizeCallsign(r.DXCall)
	buf := make([]byte, 0, len(call)+4)
	buf = append(buf, call...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(r.Frequency))
	return xxh3.Hash(buf)
}

// String returns a human-readable one-liner for diagnostic output.
func (r Raw) String() string {
	return fmt.Sprintf("%s on %.1f kHz by %s (%s)", r.DXCall, r.Frequency, r.Spotter, r.Source)
}
