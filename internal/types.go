package internal

import "time"

// LanguagePair identifies the source and target languages of a run.
type LanguagePair struct {
	Code       string `json:"code" yaml:"-"`
	SourceName string `json:"source" yaml:"source"`
	TargetName string `json:"target" yaml:"target"`
	FewShot    bool   `json:"few_shot" yaml:"few_shot"`
}

// Result is the outcome of one sentence's pipeline run.
type Result struct {
	Source          string    `json:"source"`
	Hypothesis      string    `json:"hypothesis"`
	Correction      string    `json:"correction"`
	NeedsCorrection bool      `json:"needs_correction"`
	Report          string    `json:"mqm_info"`
	Timestamp       time.Time `json:"timestamp"`
}

// CorrectionFlag returns the 0/1 encoding of NeedsCorrection used by
// persisted records.
func (r *Result) CorrectionFlag() int {
	if r.NeedsCorrection {
		return 1
	}
	return 0
}
