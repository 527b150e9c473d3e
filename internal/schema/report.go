package schema

// Report is a parsed estimate response. Raw keeps the model's text verbatim;
// it is what the refine prompt embeds and what records persist.
type Report struct {
	Critical Value
	Major    Value
	Minor    Value
	Raw      string
}

// NewReport reads the three severities out of values parsed with Estimate.
func NewReport(values Values, raw string) Report {
	return Report{
		Critical: values[CriticalField],
		Major:    values[MajorField],
		Minor:    values[MinorField],
		Raw:      raw,
	}
}

// ParseReport parses raw with the Estimate schema.
func ParseReport(raw string) (Report, error) {
	values, err := Estimate.Parse(raw)
	if err != nil {
		return Report{}, err
	}
	return NewReport(values, raw), nil
}

// noError reports whether v is one of the "no issue" sentinels: null, "",
// "no-error" or "null". Matching is exact.
func noError(v Value) bool {
	if v.Null {
		return true
	}
	switch v.Text {
	case "", "no-error", "null":
		return true
	}
	return false
}

// NeedsCorrection is the single decision that gates the refine stage. It is
// false only when all three severities hold a "no issue" sentinel.
func NeedsCorrection(r Report) bool {
	return !(noError(r.Critical) && noError(r.Major) && noError(r.Minor))
}

// Flag returns the 0/1 form of NeedsCorrection stored in result records.
func (r Report) Flag() int {
	if NeedsCorrection(r) {
		return 1
	}
	return 0
}
