package schema

import "testing"

var sentinels = []Value{
	{Null: true},
	{Text: ""},
	{Text: "no-error"},
	{Text: "null"},
}

func TestNeedsCorrection_AllSentinelCombinations(t *testing.T) {
	for _, c := range sentinels {
		for _, mj := range sentinels {
			for _, mn := range sentinels {
				r := Report{Critical: c, Major: mj, Minor: mn}
				if NeedsCorrection(r) {
					t.Errorf("expected no correction for %+v", r)
				}
				if r.Flag() != 0 {
					t.Errorf("expected flag 0 for %+v", r)
				}
			}
		}
	}
}

func TestNeedsCorrection_AnyErrorText(t *testing.T) {
	errorTexts := []Value{
		{Text: "accuracy/mistranslation - \"X\""},
		{Text: "No-error"},
		{Text: " no-error"},
		{Text: "none"},
		{Text: "NULL"},
		{Text: "[]"},
	}

	for _, bad := range errorTexts {
		for pos := 0; pos < 3; pos++ {
			for _, fill := range sentinels {
				fields := [3]Value{fill, fill, fill}
				fields[pos] = bad
				r := Report{Critical: fields[0], Major: fields[1], Minor: fields[2]}
				if !NeedsCorrection(r) {
					t.Errorf("expected correction for %+v", r)
				}
				if r.Flag() != 1 {
					t.Errorf("expected flag 1 for %+v", r)
				}
			}
		}
	}
}

func TestParseReport(t *testing.T) {
	raw := "```json\n{\"critical\": \"\", \"major\": \"no-error\", \"minor\": \"null\"}\n```"

	r, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if r.Raw != raw {
		t.Error("expected raw text to be kept verbatim")
	}
	if NeedsCorrection(r) {
		t.Error("expected no correction")
	}

	r, err = ParseReport(`{"critical": "", "major": "mistranslation of X", "minor": ""}`)
	if err != nil {
		t.Fatalf("ParseReport failed: %v", err)
	}
	if !NeedsCorrection(r) {
		t.Error("expected correction")
	}
	if r.Major.Text != "mistranslation of X" {
		t.Errorf("unexpected major %q", r.Major.Text)
	}
}

func TestParseReport_Malformed(t *testing.T) {
	if _, err := ParseReport("no errors found"); err == nil {
		t.Error("expected parse error")
	}
}
