package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"dxanalyzer/spot"
)

var decimalOrIntPattern = regexp.MustCompile(`\d+\.?\d*`)

// Extractor pulls candidate spots out of a parsed HTML document. Each
// implementation knows one site family's structure; the web poller tries
// them in ranked order and keeps the first non-empty result.
type Extractor interface {
	Name() string
	Extract(doc *goquery.Document) []spot.Raw
}

// GenericTable walks every <table> in the document and applies the same
// frequency/callsign heuristics as the line probe to each row. It is the
// fallback for sites without a known structure.
type GenericTable struct{}

func (GenericTable) Name() string { return "generic-table" }

func (GenericTable) Extract(doc *goquery.Document) []spot.Raw {
	var spots []spot.Raw
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		rowText := strings.Join(cells, " ")

		freq, ok := findFrequency(rowText)
		if !ok {
			return
		}
		call, ok := findCallsign(rowText)
		if !ok {
			return
		}
		freq = RefineRounded(freq, rowText)

		comment := ""
		if len(cells) > 2 {
			comment = cells[len(cells)-1]
		}
		spots = append(spots, spot.NewRaw("", call, freq, comment, spot.SourceWeb))
	})
	return spots
}

// DXWatch reads the dxwatch.com layout: a div#spots container holding one
// div.spot per report, with the frequency in a span.freq and the DX call
// in an a.call anchor.
type DXWatch struct{}

func (DXWatch) Name() string { return "dxwatch" }

func (DXWatch) Extract(doc *goquery.Document) []spot.Raw {
	var spots []spot.Raw
	doc.Find("div#spots div.spot").Each(func(_ int, div *goquery.Selection) {
		freqText := strings.TrimSpace(div.Find("span.freq").First().Text())
		call := strings.TrimSpace(div.Find("a.call").First().Text())
		if freqText == "" || !spot.IsValidCallsign(call) {
			return
		}
		m := decimalOrIntPattern.FindString(freqText)
		if m == "" {
			return
		}
		freq, err := strconv.ParseFloat(m, 64)
		if err != nil || freq <= 0 {
			return
		}
		freq = RefineRounded(freq, div.Text())
		spots = append(spots, spot.NewRaw("", call, freq, strings.TrimSpace(div.Find("span.comment").Text()), spot.SourceWeb))
	})
	return spots
}

// HamQTH reads the hamqth.com DX cluster table (table#dxc-table) where the
// columns carry, in order: frequency, DX call, comment, time, spotter.
type HamQTH struct{}

func (HamQTH) Name() string { return "hamqth" }

func (HamQTH) Extract(doc *goquery.Document) []spot.Raw {
	var spots []spot.Raw
	doc.Find("table#dxc-table tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) < 2 {
			return
		}
		freq, err := strconv.ParseFloat(cells[0], 64)
		if err != nil || freq <= 0 {
			return
		}
		call := cells[1]
		if !spot.IsValidCallsign(call) {
			return
		}
		comment, spotter := "", ""
		if len(cells) > 2 {
			comment = cells[2]
		}
		if len(cells) > 4 {
			spotter = cells[4]
		}
		freq = RefineRounded(freq, strings.Join(cells, " "))
		spots = append(spots, spot.NewRaw(spotter, call, freq, comment, spot.SourceWeb))
	})
	return spots
}
