// Package extract turns raw feed bytes into candidate spot records. The
// line form handles telnet cluster announcements; the structural form
// (html.go) walks scraped documents. Both are best-effort: an ordered list
// of independent pattern attempts where the first full match wins, with a
// token-probe fallback for feeds that omit the usual markers. Misses are
// silent; the caller just gets no spot.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"dxanalyzer/spot"
)

// Precompiled patterns, tried in order. The canonical shape first, then
// the rarer feed variants, then the anything-goes probe.
var (
	// DX de ON4KST: 14205.0 JA1ABC CQ 1200Z
	primaryPattern = regexp.MustCompile(`DX\s+de\s+([\w/]+):?\s+(\d+\.?\d*)\s+([\w/]+)\s+(.*?)(?:\s+(\d{3,4}Z))?\s*$`)

	// W1AW spots JA1ABC on 14.205 MHz CQ
	spotsPattern = regexp.MustCompile(`(?i)([\w/]+)\s+spots\s+([\w/]+)\s+(?:on|at)\s+(\d+\.?\d*)\s*(?:MHz|kHz)?\s*(.*?)(?:\s+(\d{3,4}Z))?\s*$`)

	// Spot: W1AW 14205.0 JA1ABC comment...
	labeledPattern = regexp.MustCompile(`Spot:\s+([\w/]+)\s+(\d+\.?\d*)\s+([\w/]+)\s*(.*)`)

	// 14025.0 DL0WU CQ at 1023Z  (sh/dx history output, frequency first)
	historyPattern = regexp.MustCompile(`^\s*(\d+\.\d+)\s+(\S+)\s*(.*)$`)

	decimalFreqPattern = regexp.MustCompile(`(\d+\.\d+)`)
	bareFreqPattern    = regexp.MustCompile(`\b(\d{4,5})\b`)
	callTokenPattern   = regexp.MustCompile(`(?i)\b(?:[A-Z0-9]{1,3}/)?[A-Z0-9]{1,2}[0-9][A-Z0-9]{1,3}(?:/[A-Z0-9]+)?\b`)
	timeTokenPattern   = regexp.MustCompile(`\b(\d{3,4}Z)\b`)
)

// ParseLine extracts a spot from one line of network text. Returns false
// when no rule yields both a parsable frequency and a callsign.
func ParseLine(line string) (spot.Raw, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return spot.Raw{}, false
	}

	if strings.HasPrefix(trimmed, "DX de ") {
		if raw, ok := parsePrimary(trimmed); ok {
			return raw, true
		}
	}
	if raw, ok := parseHistory(trimmed); ok {
		return raw, true
	}
	if raw, ok := parseAlternates(trimmed); ok {
		return raw, true
	}
	// Last resort: probe for a frequency-like and callsign-like token
	// anywhere in the line. Tolerates feeds that omit the marker entirely.
	return probeLine(trimmed)
}

func parsePrimary(line string) (spot.Raw, bool) {
	m := primaryPattern.FindStringSubmatch(line)
	if m == nil {
		return spot.Raw{}, false
	}
	freq, err := strconv.ParseFloat(m[2], 64)
	if err != nil || freq <= 0 {
		return spot.Raw{}, false
	}
	if !spot.IsValidCallsign(m[3]) {
		return spot.Raw{}, false
	}
	return spot.NewRaw(m[1], m[3], freq, m[4], spot.SourceNetwork), true
}

// parseHistory handles frequency-first lines as produced by sh/dx output.
// The spotter is not present in this shape.
func parseHistory(line string) (spot.Raw, bool) {
	m := historyPattern.FindStringSubmatch(line)
	if m == nil {
		return spot.Raw{}, false
	}
	freq, err := strconv.ParseFloat(m[1], 64)
	if err != nil || freq <= 0 {
		return spot.Raw{}, false
	}
	if !spot.IsValidCallsign(m[2]) {
		return spot.Raw{}, false
	}
	return spot.NewRaw("", m[2], freq, m[3], spot.SourceNetwork), true
}

func parseAlternates(line string) (spot.Raw, bool) {
	if m := spotsPattern.FindStringSubmatch(line); m != nil {
		freq, err := strconv.ParseFloat(m[3], 64)
		if err == nil && freq > 0 && spot.IsValidCallsign(m[2]) {
			// "on 14.205 MHz" style values arrive in MHz.
			if freq < 30 {
				freq *= 1000
			}
			return spot.NewRaw(m[1], m[2], freq, m[4], spot.SourceNetwork), true
		}
	}
	if m := labeledPattern.FindStringSubmatch(line); m != nil {
		freq, err := strconv.ParseFloat(m[2], 64)
		if err == nil && freq > 0 && spot.IsValidCallsign(m[3]) {
			return spot.NewRaw("", m[3], freq, m[4], spot.SourceNetwork), true
		}
	}
	return spot.Raw{}, false
}

// probeLine searches for any decimal-looking frequency token and any token
// resembling a callsign. Bare 3-6 digit integers are frequency candidates,
// never callsigns, so "14195 JA1ABC" can't self-match.
func probeLine(line string) (spot.Raw, bool) {
	freq, ok := findFrequency(line)
	if !ok {
		return spot.Raw{}, false
	}
	call, ok := findCallsign(line)
	if !ok {
		return spot.Raw{}, false
	}
	return spot.NewRaw("", call, freq, line, spot.SourceNetwork), true
}

// findFrequency looks for a decimal frequency first (converting MHz values
// below 30), then a bare 4-5 digit kHz value inside the common HF range.
func findFrequency(text string) (float64, bool) {
	if m := decimalFreqPattern.FindStringSubmatch(text); m != nil {
		if freq, err := strconv.ParseFloat(m[1], 64); err == nil && freq > 0 {
			if freq < 30 {
				freq *= 1000
			}
			return freq, true
		}
	}
	if m := bareFreqPattern.FindStringSubmatch(text); m != nil {
		if freq, err := strconv.ParseFloat(m[1], 64); err == nil && freq >= 1800 && freq <= 29700 {
			return freq, true
		}
	}
	return 0, false
}

// findCallsign returns the first token that validates as a callsign.
func findCallsign(text string) (string, bool) {
	for _, candidate := range callTokenPattern.FindAllString(text, -1) {
		if spot.IsValidCallsign(candidate) {
			return candidate, true
		}
	}
	return "", false
}
