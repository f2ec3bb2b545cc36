package bandplan

import (
	"regexp"
	"strings"
)

// Keyword sets for mode detection in comments. Word-boundary matching keeps
// callsigns like "K1CW" from triggering a CW match.
var (
	cwIndicators      = compileIndicators("CW", "QRS", "MORSE")
	ssbIndicators     = compileIndicators("SSB", "LSB", "USB", "PHONE")
	digitalIndicators = compileIndicators("FT8", "FT4", "PSK", "RTTY", "DIGITAL")
)

func compileIndicators(words ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return patterns
}

// fallbackEdges covers the standard shortwave/VHF allocations so a spot
// still gets a band label when the operator's rule table has no matching
// row. Region stays UNKNOWN on this path.
var fallbackEdges = []Rule{
	{Band: "160m", StartFreq: 1800, EndFreq: 2000},
	{Band: "80m", StartFreq: 3500, EndFreq: 4000},
	{Band: "60m", StartFreq: 5330, EndFreq: 5406},
	{Band: "40m", StartFreq: 7000, EndFreq: 7300},
	{Band: "30m", StartFreq: 10100, EndFreq: 10150},
	{Band: "20m", StartFreq: 14000, EndFreq: 14350},
	{Band: "17m", StartFreq: 18068, EndFreq: 18168},
	{Band: "15m", StartFreq: 21000, EndFreq: 21450},
	{Band: "12m", StartFreq: 24890, EndFreq: 24990},
	{Band: "10m", StartFreq: 28000, EndFreq: 29700},
	{Band: "6m", StartFreq: 50000, EndFreq: 54000},
	{Band: "2m", StartFreq: 144000, EndFreq: 148000},
}

// Classifier maps (frequency, comment) to (mode, band, region) using the
// loaded rule table. It is pure and total: unrecognized input yields
// UNKNOWN fields, never an error.
type Classifier struct {
	rules []Rule
}

// NewClassifier wraps an ordered rule table. The slice is not copied; the
// table is read-only after startup.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify determines mode, band, and region for a frequency/comment pair.
// Precedence: rule table by frequency first, then an explicit mode keyword
// in the comment overrides the frequency-derived mode (an operator
// annotation is trusted over inference), then hardcoded band edges fill in
// the band when no rule matched.
func (c *Classifier) Classify(freqKHz float64, comment string) (mode, band, region string) {
	mode, band, region = Unknown, Unknown, Unknown

	for _, rule := range c.rules {
		if rule.Contains(freqKHz) {
			mode = rule.Mode
			band = rule.Band
			region = rule.Region
			break
		}
	}

	commentUpper := strings.ToUpper(comment)
	switch {
	case matchesAny(cwIndicators, commentUpper):
		mode = "CW"
	case matchesAny(ssbIndicators, commentUpper):
		mode = "SSB"
	case matchesAny(digitalIndicators, commentUpper):
		mode = "DIGITAL"
	}

	if band == Unknown {
		for _, edge := range fallbackEdges {
			if edge.Contains(freqKHz) {
				band = edge.Band
				break
			}
		}
	}
	return mode, band, region
}

// ShouldInclude reports whether a spot belongs in the statistics: only CW
// and SSB count, and only when a rule of that mode covers the frequency.
// Spots classified purely through the fallback edges are excluded, which
// is how digital-mode and out-of-plan noise stays out of the counters
// while remaining visible in diagnostics.
func (c *Classifier) ShouldInclude(freqKHz float64, mode string) bool {
	if mode != "CW" && mode != "SSB" {
		return false
	}
	for _, rule := range c.rules {
		if rule.Mode == mode && rule.Contains(freqKHz) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
