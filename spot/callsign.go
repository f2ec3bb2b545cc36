package spot

import (
	"regexp"
	"strings"
	"unicode"
)

// callsignPattern matches a normalized callsign: an alphanumeric core with
// optional prefix/suffix parts joined by '/'. The digit requirement is
// enforced separately in validateNormalized.
var callsignPattern = regexp.MustCompile(`^(?:[A-Z0-9]{1,3}/)?[A-Z0-9]{3,7}(?:/[A-Z0-9]{1,4})?$`)

// bareFrequencyPattern rejects tokens that are plausible frequencies in
// kHz (3-6 digit integers); without this check the last-resort line probe
// would happily report "14195" as a DX call.
var bareFrequencyPattern = regexp.MustCompile(`^[0-9]{3,6}$`)

// NormalizeCallsign uppercases, trims whitespace, and strips trailing
// punctuation left behind by feed formatting (":" after spotter calls,
// stray dots from scraped cells).
func NormalizeCallsign(call string) string {
	normalized := strings.ToUpper(strings.TrimSpace(call))
	normalized = strings.TrimSuffix(normalized, ":")
	normalized = strings.ReplaceAll(normalized, ".", "/")
	normalized = strings.TrimSuffix(normalized, "/")
	return strings.TrimSpace(normalized)
}

func validateNormalized(call string) bool {
	if call == "" || bareFrequencyPattern.MatchString(call) {
		return false
	}
	core := call
	// Validate length against the core portion only; a /P suffix should not
	// disqualify an otherwise fine call.
	parts := strings.Split(call, "/")
	if len(parts) > 1 {
		longest := ""
		for _, p := range parts {
			if len(p) > len(longest) {
				longest = p
			}
		}
		core = longest
	}
	if len(core) < 3 || len(core) > 7 {
		return false
	}
	if strings.IndexFunc(core, unicode.IsDigit) < 0 {
		return false
	}
	return callsignPattern.MatchString(call)
}

// IsValidCallsign reports whether the string looks like an amateur
// callsign: 3-7 alphanumeric characters containing at least one digit,
// with optional prefix/suffix after '/'.
func IsValidCallsign(call string) bool {
	return validateNormalized(NormalizeCallsign(call))
}
