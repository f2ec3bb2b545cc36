package pipeline

import "sort"

// Counters accumulates admitted-spot counts per frequency and mode, along
// with the band each frequency belongs to. Counts only grow within a run;
// a process restart is the only reset. Mutation is confined to the
// pipeline's ingestion path.
type Counters struct {
	counts map[float64]map[string]int
	bands  map[float64]string
	total  int
}

// CountRow is one (frequency, mode) cell, used when exporting a snapshot.
type CountRow struct {
	Frequency float64
	Mode      string
	Band      string
	Count     int
}

func NewCounters() *Counters {
	return &Counters{
		counts: make(map[float64]map[string]int),
		bands:  make(map[float64]string),
	}
}

// Increment adds one sighting of mode on freq. Band is derived from the
// frequency alone, so the first sighting's value holds for the run.
func (c *Counters) Increment(freq float64, mode, band string) {
	byMode, ok := c.counts[freq]
	if !ok {
		byMode = make(map[string]int)
		c.counts[freq] = byMode
		c.bands[freq] = band
	}
	byMode[mode]++
	c.total++
}

// Total returns the number of increments across all cells.
func (c *Counters) Total() int {
	return c.total
}

// Get returns the count for one (frequency, mode) cell.
func (c *Counters) Get(freq float64, mode string) int {
	return c.counts[freq][mode]
}

// Rows returns every non-zero cell ordered by frequency then mode, a
// stable shape for snapshot writers.
func (c *Counters) Rows() []CountRow {
	rows := make([]CountRow, 0, len(c.counts))
	for freq, byMode := range c.counts {
		for mode, n := range byMode {
			rows = append(rows, CountRow{
				Frequency: freq,
				Mode:      mode,
				Band:      c.bands[freq],
				Count:     n,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Frequency != rows[j].Frequency {
			return rows[i].Frequency < rows[j].Frequency
		}
		return rows[i].Mode < rows[j].Mode
	})
	return rows
}

// ByBand sums counts per band and mode across all frequencies.
func (c *Counters) ByBand() map[string]map[string]int {
	totals := make(map[string]map[string]int)
	for freq, byMode := range c.counts {
		band := c.bands[freq]
		if totals[band] == nil {
			totals[band] = make(map[string]int)
		}
		for mode, n := range byMode {
			totals[band][mode] += n
		}
	}
	return totals
}
