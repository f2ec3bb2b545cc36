// Package bandplan loads the operator-supplied band rule table and
// classifies frequencies into (mode, band, region). Classification is
// deliberately heuristic: it never fails, it falls back to hardcoded band
// edges, and it trusts explicit mode keywords in comments over anything
// derived from frequency.
package bandplan

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Unknown is returned for any field the classifier cannot determine.
const Unknown = "UNKNOWN"

// Rule is one row of the band configuration: a frequency range in kHz
// tagged with band name, mode, and region. Ranges may overlap across rows
// with different modes; the first matching row wins.
type Rule struct {
	Band      string
	Mode      string
	StartFreq float64 // kHz, inclusive
	EndFreq   float64 // kHz, inclusive
	Region    string
}

// Contains reports whether freq (kHz) falls inside the rule's range.
func (r Rule) Contains(freq float64) bool {
	return freq >= r.StartFreq && freq <= r.EndFreq
}

// LoadRules reads the ordered rule table from a CSV file with the header
// Band,Mode,StartFreq,EndFreq,Region. A missing file or a table with no
// usable rows is an error; the caller treats that as startup-fatal since
// an empty plan means no spot can ever be included. Malformed rows are
// skipped with a warning so one typo doesn't take the collector down.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("band plan: open %s: %w", path, err)
	}
	defer f.Close()

	rules, err := parseRules(f)
	if err != nil {
		return nil, fmt.Errorf("band plan: parse %s: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("band plan: %s contains no usable rules", path)
	}
	return rules, nil
}

func parseRules(r io.Reader) ([]Rule, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var rules []Rule
	for i, record := range records {
		if len(record) < 5 {
			continue
		}
		// Skip the header row.
		if i == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "band") {
			continue
		}
		start, err1 := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		end, err2 := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err1 != nil || err2 != nil || end < start {
			log.Printf("Band plan: skipping malformed row %d: %v", i+1, record)
			continue
		}
		rules = append(rules, Rule{
			Band:      strings.TrimSpace(record[0]),
			Mode:      strings.ToUpper(strings.TrimSpace(record[1])),
			StartFreq: start,
			EndFreq:   end,
			Region:    strings.TrimSpace(record[4]),
		})
	}
	return rules, nil
}
