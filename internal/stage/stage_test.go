package stage

import "testing"

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"zero-shot", ZeroShot},
		{"few-shot", FewShot},
		{"alpha", Alpha},
		{"Beta", Beta},
		{" few-shot ", FewShot},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if err != nil {
			t.Errorf("ParseStrategy(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseStrategy("gamma"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestParseStage(t *testing.T) {
	for _, st := range All {
		got, err := ParseStage(st.String())
		if err != nil {
			t.Fatalf("ParseStage(%q): %v", st, err)
		}
		if got != st {
			t.Errorf("expected %v, got %v", st, got)
		}
	}
	if _, err := ParseStage("review"); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestSupports(t *testing.T) {
	valid := map[Key]bool{
		{Translate, ZeroShot}: true,
		{Translate, FewShot}:  true,
		{Estimate, ZeroShot}:  true,
		{Estimate, FewShot}:   true,
		{Refine, Alpha}:       true,
		{Refine, Beta}:        true,
	}
	for _, st := range All {
		for _, s := range strategies {
			k := Key{st, s}
			if Supports(st, s) != valid[k] {
				t.Errorf("Supports(%s) = %v, want %v", k, Supports(st, s), valid[k])
			}
		}
	}
}

func TestKeyPath(t *testing.T) {
	k := Key{Stage: Refine, Strategy: Beta}
	if k.Path() != "refine/beta" {
		t.Errorf("expected 'refine/beta', got %q", k.Path())
	}
}

func TestStrategies_Downgrade(t *testing.T) {
	requested := []Strategies{
		Defaults(),
		{Translate: ZeroShot, Estimate: ZeroShot, Refine: Alpha},
		{Translate: FewShot, Estimate: ZeroShot, Refine: Alpha},
		{Translate: ZeroShot, Estimate: FewShot, Refine: Beta},
	}
	for _, s := range requested {
		got := s.Downgrade()
		if got.Translate != ZeroShot {
			t.Errorf("%s: expected translate zero-shot, got %s", s, got.Translate)
		}
		if got.Refine != Alpha {
			t.Errorf("%s: expected refine alpha, got %s", s, got.Refine)
		}
		if got.Estimate != s.Estimate {
			t.Errorf("%s: estimate strategy changed to %s", s, got.Estimate)
		}
	}
}

func TestStrategies_Validate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
	bad := Strategies{Translate: Beta, Estimate: FewShot, Refine: Alpha}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for beta translate strategy")
	}
}

func TestStrategies_String(t *testing.T) {
	if got := Defaults().String(); got != "few-shot_few-shot_beta" {
		t.Errorf("unexpected string %q", got)
	}
}
