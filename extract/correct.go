package extract

import (
	"math"
	"strconv"
)

// RefineRounded corrects the "suspiciously round" frequencies produced by
// sites that label spots with the band edge (14000, 7000, ...). When freq
// is an exact multiple of 1000 kHz, the surrounding text is searched for a
// more precise decimal value in the same band: either an MHz figure like
// "14.195" or a kHz figure within 1000 kHz of the rounded value. The
// refinement never fabricates; if nothing better is found the original
// value comes back unchanged.
func RefineRounded(freqKHz float64, text string) float64 {
	if freqKHz < 1000 || math.Mod(freqKHz, 1000) != 0 {
		return freqKHz
	}
	for _, m := range decimalFreqPattern.FindAllStringSubmatch(text, -1) {
		candidate, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		// MHz form: same integer-MHz bucket as the rounded value.
		if candidate >= 1 && candidate <= 30 {
			candidateKHz := candidate * 1000
			if int(candidateKHz/1000) == int(freqKHz/1000) {
				return candidateKHz
			}
			continue
		}
		// kHz form: close to the rounded value and not itself round.
		if math.Abs(candidate-freqKHz) < 1000 && math.Mod(candidate, 1000) != 0 {
			return candidate
		}
	}
	return freqKHz
}
