package bandplan

import "testing"

func testRules() []Rule {
	return []Rule{
		{Band: "40m", Mode: "CW", StartFreq: 7000, EndFreq: 7040, Region: "R1"},
		{Band: "40m", Mode: "SSB", StartFreq: 7040, EndFreq: 7200, Region: "R1"},
		{Band: "20m", Mode: "CW", StartFreq: 14000, EndFreq: 14070, Region: "R1"},
		{Band: "20m", Mode: "SSB", StartFreq: 14150, EndFreq: 14350, Region: "R1"},
	}
}

func TestClassifyUsesFirstMatchingRule(t *testing.T) {
	c := NewClassifier(testRules())
	mode, band, region := c.Classify(14205.0, "calling")
	if mode != "SSB" || band != "20m" || region != "R1" {
		t.Fatalf("expected SSB/20m/R1, got %s/%s/%s", mode, band, region)
	}
}

func TestClassifyCommentKeywordOverridesFrequency(t *testing.T) {
	c := NewClassifier(testRules())
	mode, _, _ := c.Classify(14205.0, "big sig CW qrs pse")
	if mode != "CW" {
		t.Fatalf("expected CW override, got %s", mode)
	}
	mode, _, _ = c.Classify(7030.0, "working FT8")
	if mode != "DIGITAL" {
		t.Fatalf("expected DIGITAL override, got %s", mode)
	}
}

func TestClassifyKeywordNeedsWordBoundary(t *testing.T) {
	c := NewClassifier(testRules())
	// "K1CW" must not trip the CW indicator.
	mode, _, _ := c.Classify(14205.0, "tnx K1CW 73")
	if mode != "SSB" {
		t.Fatalf("expected frequency-derived SSB, got %s", mode)
	}
}

func TestClassifyFallbackEdges(t *testing.T) {
	c := NewClassifier(testRules())
	mode, band, region := c.Classify(3573.0, "")
	if mode != Unknown || band != "80m" || region != Unknown {
		t.Fatalf("expected UNKNOWN/80m/UNKNOWN, got %s/%s/%s", mode, band, region)
	}
	// Totally out of range: all fields unknown, no error.
	mode, band, region = c.Classify(999999.0, "")
	if mode != Unknown || band != Unknown || region != Unknown {
		t.Fatalf("expected all UNKNOWN, got %s/%s/%s", mode, band, region)
	}
}

func TestShouldInclude(t *testing.T) {
	c := NewClassifier(testRules())
	cases := []struct {
		freq float64
		mode string
		want bool
	}{
		{14205, "SSB", true},
		{7030, "CW", true},
		{14205, "CW", false},      // no CW rule covers 14205
		{3573, "SSB", false},      // fallback-only band, no rule
		{14074, "DIGITAL", false}, // digital always excluded
		{14205, "UNKNOWN", false},
	}
	for _, tc := range cases {
		if got := c.ShouldInclude(tc.freq, tc.mode); got != tc.want {
			t.Fatalf("ShouldInclude(%.0f, %s) = %v, want %v", tc.freq, tc.mode, got, tc.want)
		}
	}
}
