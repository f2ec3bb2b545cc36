package extract

import (
	"testing"

	"dxanalyzer/spot"
)

func TestParseLineCanonical(t *testing.T) {
	raw, ok := ParseLine("DX de ON4KST: 14205.0 JA1ABC CQ SSB 1200Z")
	if !ok {
		t.Fatalf("expected canonical line to parse")
	}
	if raw.Spotter != "ON4KST" || raw.DXCall != "JA1ABC" {
		t.Fatalf("unexpected calls: %s / %s", raw.Spotter, raw.DXCall)
	}
	if raw.Frequency != 14205.0 {
		t.Fatalf("expected 14205.0, got %f", raw.Frequency)
	}
	if raw.Comment != "CQ SSB" {
		t.Fatalf("expected comment without time token, got %q", raw.Comment)
	}
	if raw.Source != spot.SourceNetwork {
		t.Fatalf("expected network source")
	}
}

func TestParseLineHistoryFormat(t *testing.T) {
	raw, ok := ParseLine("14025.0 DL0WU        CQ at 1023Z")
	if !ok {
		t.Fatalf("expected history line to parse")
	}
	if raw.DXCall != "DL0WU" || raw.Frequency != 14025.0 {
		t.Fatalf("unexpected parse: %+v", raw)
	}
	if raw.Spotter != spot.UnknownSpotter {
		t.Fatalf("history lines carry no spotter, got %q", raw.Spotter)
	}
}

func TestParseLineAlternateFormats(t *testing.T) {
	raw, ok := ParseLine("W1AW spots JA1ABC on 14.205 MHz CQ contest")
	if !ok {
		t.Fatalf("expected 'spots' variant to parse")
	}
	if raw.Frequency != 14205.0 {
		t.Fatalf("expected MHz conversion to 14205.0, got %f", raw.Frequency)
	}
	if raw.Spotter != "W1AW" || raw.DXCall != "JA1ABC" {
		t.Fatalf("unexpected calls: %+v", raw)
	}

	raw, ok = ParseLine("Spot: W1AW 7030.0 K2XYZ testing")
	if !ok {
		t.Fatalf("expected 'Spot:' variant to parse")
	}
	if raw.DXCall != "K2XYZ" || raw.Frequency != 7030.0 {
		t.Fatalf("unexpected parse: %+v", raw)
	}
}

func TestParseLineProbeWithoutMarker(t *testing.T) {
	raw, ok := ParseLine("heard K2XYZ working split around 7030.5 this morning")
	if !ok {
		t.Fatalf("expected marker-less line to probe successfully")
	}
	if raw.DXCall != "K2XYZ" || raw.Frequency != 7030.5 {
		t.Fatalf("unexpected parse: %+v", raw)
	}
}

func TestParseLineBareFrequencyNotACallsign(t *testing.T) {
	// 14195 is a frequency token; it must never satisfy the callsign probe
	// on its own.
	if _, ok := ParseLine("something around 14195 today"); ok {
		t.Fatalf("expected no spot when only a bare frequency is present")
	}
	raw, ok := ParseLine("something around 14195 from JA1ABC today")
	if !ok {
		t.Fatalf("expected probe to find both tokens")
	}
	if raw.Frequency != 14195.0 || raw.DXCall != "JA1ABC" {
		t.Fatalf("unexpected parse: %+v", raw)
	}
}

func TestParseLineRejectsNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"Welcome to the DX cluster node",
		"login: ",
		"WWV de W0MU <18>: SFI=140, A=5, K=2",
	} {
		if _, ok := ParseLine(line); ok {
			t.Fatalf("expected %q to yield no spot", line)
		}
	}
}
