package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	r := Default()

	p, ok := r.Lookup("zh-en")
	if !ok {
		t.Fatal("expected zh-en to be registered")
	}
	if p.Code != "zh-en" || p.SourceName != "Chinese" || p.TargetName != "English" || !p.FewShot {
		t.Errorf("unexpected pair %+v", p)
	}

	if p, _ := r.Lookup("EN-UK"); p.FewShot {
		t.Error("en-uk ships no exemplars")
	}

	codes := r.Codes()
	if len(codes) < 3 {
		t.Fatalf("expected several codes, got %v", codes)
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Errorf("codes not sorted: %v", codes)
		}
	}
}

func TestParse_JSON(t *testing.T) {
	r, err := Parse([]byte(`{"fr-en": {"source": "French", "target": "English", "few_shot": true}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, ok := r.Lookup("fr-en")
	if !ok || !p.FewShot || p.SourceName != "French" {
		t.Errorf("unexpected pair %+v", p)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad code", "english:\n  source: English\n  target: German\n"},
		{"missing target", "en-de:\n  source: English\n"},
		{"not a mapping", "- en-de\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.yaml")
	if err := os.WriteFile(path, []byte("en-pl:\n  source: English\n  target: Polish\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p, ok := r.Lookup("en-pl"); !ok || p.FewShot {
		t.Errorf("unexpected pair %+v", p)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	r := Default()

	p, err := r.Resolve("en-de", "", "")
	if err != nil || !p.FewShot || p.TargetName != "German" {
		t.Errorf("unexpected registered pair %+v (%v)", p, err)
	}

	p, err = r.Resolve("en-de", "", "Swiss German")
	if err != nil || p.TargetName != "Swiss German" || !p.FewShot {
		t.Errorf("expected overridden target name, got %+v (%v)", p, err)
	}

	p, err = r.Resolve("sv-fi", "Swedish", "Finnish")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.FewShot || p.Code != "sv-fi" {
		t.Errorf("unregistered pair must not claim few-shot support: %+v", p)
	}

	if _, err := r.Resolve("sv-fi", "", ""); err == nil {
		t.Error("expected error for unregistered pair without names")
	}
	if _, err := r.Resolve("svfi", "Swedish", "Finnish"); err == nil {
		t.Error("expected error for malformed code")
	}
}
