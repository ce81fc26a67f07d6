package model

import "strings"

type Status string

const (
	StatusNotReviewed   Status = "Not_Reviewed"
	StatusOpen          Status = "Open"
	StatusNotAFinding   Status = "NotAFinding"
	StatusNotApplicable Status = "Not_Applicable"
)

// Severity is a severity override. The empty Severity means no override.
type Severity string

const (
	SeverityNone   Severity = ""
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

var statusNames = map[string]Status{
	"notreviewed":   StatusNotReviewed,
	"open":          StatusOpen,
	"notafinding":   StatusNotAFinding,
	"notapplicable": StatusNotApplicable,
}

var severityNames = map[string]Severity{
	"cati":   SeverityHigh,
	"cat1":   SeverityHigh,
	"catii":  SeverityMedium,
	"cat2":   SeverityMedium,
	"catiii": SeverityLow,
	"cat3":   SeverityLow,
}

func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", ""))
}

// ParseStatus maps a loosely written status ("Not a Finding", "open") to a
// Status. The second result is false for anything unrecognized.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusNames[normalize(s)]
	return st, ok
}

// ParseSeverity maps "CAT I", "cat1" and friends to a severity override.
func ParseSeverity(s string) (Severity, bool) {
	sev, ok := severityNames[normalize(s)]
	return sev, ok
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotReviewed, StatusOpen, StatusNotAFinding, StatusNotApplicable:
		return true
	}
	return false
}
