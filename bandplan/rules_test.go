package bandplan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempPlan(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "band_config.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp plan: %v", err)
	}
	return path
}

func TestLoadRulesParsesOrderedTable(t *testing.T) {
	path := writeTempPlan(t, strings.Join([]string{
		"Band,Mode,StartFreq,EndFreq,Region",
		"40m,CW,7000,7040,R1",
		"40m,SSB,7040,7200,R1",
	}, "\n"))

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Mode != "CW" || rules[0].StartFreq != 7000 {
		t.Fatalf("unexpected first rule: %+v", rules[0])
	}
}

func TestLoadRulesSkipsMalformedRows(t *testing.T) {
	path := writeTempPlan(t, strings.Join([]string{
		"Band,Mode,StartFreq,EndFreq,Region",
		"40m,CW,not-a-number,7040,R1",
		"20m,SSB,14150,14350,R1",
	}, "\n"))

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Band != "20m" {
		t.Fatalf("expected only the valid row, got %+v", rules)
	}
}

func TestLoadRulesFatalConditions(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := writeTempPlan(t, "Band,Mode,StartFreq,EndFreq,Region\n")
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected error for empty table")
	}
}
