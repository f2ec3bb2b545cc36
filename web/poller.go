// Package web polls DX cluster web pages as the alternative acquisition
// path. Each poll cycle walks a ranked list of (URL, extractor) pairs and
// keeps the first non-empty result; transient fetch errors skip that URL
// for the current cycle only, so every cycle independently retries the
// full list.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dxanalyzer/extract"
	"dxanalyzer/spot"
)

const (
	defaultPollInterval = 10 * time.Second
	fetchTimeout        = 10 * time.Second

	// Some cluster pages refuse the default Go user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Source pairs a URL with the extractor that understands its structure.
type Source struct {
	URL       string
	Extractor extract.Extractor
}

// DefaultSources is the ranked list the collector polls when the
// configuration does not override it.
func DefaultSources() []Source {
	return []Source{
		{URL: "https://www.hamqth.com/dxc.php", Extractor: extract.HamQTH{}},
		{URL: "https://www.dxwatch.com/", Extractor: extract.DXWatch{}},
		{URL: "http://www.dxsummit.fi/", Extractor: extract.GenericTable{}},
		{URL: "https://www.dx-cluster.de", Extractor: extract.GenericTable{}},
	}
}

// ExtractorByName resolves a configuration extractor name.
func ExtractorByName(name string) (extract.Extractor, bool) {
	switch name {
	case "generic-table", "":
		return extract.GenericTable{}, true
	case "dxwatch":
		return extract.DXWatch{}, true
	case "hamqth":
		return extract.HamQTH{}, true
	default:
		return nil, false
	}
}

// Poller fetches the ranked sources on a fixed interval.
type Poller struct {
	sources  []Source
	client   *http.Client
	interval time.Duration
	spots    chan spot.Raw
}

// NewPoller builds a poller over the given sources. A zero interval uses
// the 10 s default.
func NewPoller(sources []Source, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		sources:  sources,
		client:   &http.Client{Timeout: fetchTimeout},
		interval: interval,
		spots:    make(chan spot.Raw, 100),
	}
}

// Spots returns the channel of extracted raw spots.
func (p *Poller) Spots() <-chan spot.Raw {
	return p.spots
}

// Run polls until ctx is cancelled. The first fetch happens immediately;
// later ones on the tick.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.spots)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.pollOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pollOnce tries each source in ranked order and stops at the first one
// whose extractor yields spots. No aggregation across sources within a
// cycle: overlapping pages would double-report the same spots.
func (p *Poller) pollOnce(ctx context.Context) {
	for _, src := range p.sources {
		if ctx.Err() != nil {
			return
		}
		spots, err := p.fetch(ctx, src)
		if err != nil {
			log.Printf("Web: %s: %v", src.URL, err)
			continue
		}
		if len(spots) == 0 {
			log.Printf("Web: %s yielded no spots via %s", src.URL, src.Extractor.Name())
			continue
		}
		log.Printf("Web: %d spots from %s via %s", len(spots), src.URL, src.Extractor.Name())
		for _, raw := range spots {
			select {
			case p.spots <- raw:
			case <-ctx.Done():
				return
			}
		}
		return
	}
	log.Printf("Web: all %d sources failed or were empty this cycle", len(p.sources))
}

func (p *Poller) fetch(ctx context.Context, src Source) ([]spot.Raw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return src.Extractor.Extract(doc), nil
}
