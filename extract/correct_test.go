package extract

import "testing"

func TestRefineRoundedFromMHzToken(t *testing.T) {
	if got := RefineRounded(14000, "JA1ABC up 14.195 strong"); got != 14195.0 {
		t.Fatalf("expected 14195.0, got %f", got)
	}
}

func TestRefineRoundedFromKHzToken(t *testing.T) {
	if got := RefineRounded(7000, "listening 7030.5 qsx"); got != 7030.5 {
		t.Fatalf("expected 7030.5, got %f", got)
	}
}

func TestRefineRoundedLeavesValueWhenNothingBetter(t *testing.T) {
	if got := RefineRounded(14000, "no precise value here"); got != 14000 {
		t.Fatalf("expected unchanged value, got %f", got)
	}
	// Candidate from a different band must not be adopted.
	if got := RefineRounded(14000, "also heard on 7.030"); got != 14000 {
		t.Fatalf("expected unchanged value for cross-band candidate, got %f", got)
	}
}

func TestRefineRoundedSkipsNonRoundInput(t *testing.T) {
	if got := RefineRounded(14195.0, "ignore 14.205 here"); got != 14195.0 {
		t.Fatalf("non-round input must pass through, got %f", got)
	}
}
