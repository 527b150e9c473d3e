// Package detector identifies the language of a sentence. It lets the CLI
// build a language pair when only the target language is given, and flags
// corrections that come back in the wrong language.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minCheckLength is the rune count below which target-language checks are
// skipped; the detector is unreliable on very short text.
const minCheckLength = 20

// Detector wraps a lingua detector. Building one is expensive; reuse it.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over the given languages, or over every language
// lingua knows when none are given.
func New(languages ...lingua.Language) *Detector {
	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(languages) >= 2 {
		detector = builder.FromLanguages(languages...).Build()
	} else {
		detector = builder.FromAllLanguages().Build()
	}
	return &Detector{detector: detector}
}

// Detect returns the ISO 639-1 code and English name of text's language.
func (d *Detector) Detect(text string) (code, name string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), lang.String(), true
}

// PairCode returns "<detected>-<target>" for a source sentence.
func (d *Detector) PairCode(source, targetCode string) (string, string, bool) {
	code, name, ok := d.Detect(source)
	if !ok {
		return "", "", false
	}
	return code + "-" + strings.ToLower(targetCode), name, true
}

// InTarget reports whether text appears to be written in targetCode. Short or
// ambiguous text passes; detected holds the code that was found instead.
func (d *Detector) InTarget(text, targetCode string) (ok bool, detected string) {
	if targetCode == "" || len([]rune(strings.TrimSpace(text))) < minCheckLength {
		return true, ""
	}
	code, _, found := d.Detect(text)
	if !found {
		return true, ""
	}
	return strings.EqualFold(code, targetCode), code
}

// Name returns the English name for an ISO 639-1 code, or "" if unknown.
func Name(code string) string {
	iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(code))
	if iso == lingua.UnknownIsoCode639_1 {
		return ""
	}
	lang := lingua.GetLanguageFromIsoCode639_1(iso)
	if lang == lingua.Unknown {
		return ""
	}
	return lang.String()
}
