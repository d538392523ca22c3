package models

// Verdict is one of the closed set of AITA judgment categories
type Verdict string

const (
	VerdictNTA Verdict = "NTA" // Not The Asshole
	VerdictYTA Verdict = "YTA" // You're The Asshole
	VerdictESH Verdict = "ESH" // Everyone Sucks Here
	VerdictNAH Verdict = "NAH" // No Assholes Here
)

// VerdictLabels is the fixed label order used by the jury classifier.
// Iteration over a consensus distribution must follow this order so that
// rendered output is deterministic.
var VerdictLabels = []Verdict{VerdictNTA, VerdictYTA, VerdictESH, VerdictNAH}

// AllVerdicts returns the closed verdict set as strings for SQL filters
func AllVerdicts() []string {
	labels := make([]string, 0, len(VerdictLabels))
	for _, v := range VerdictLabels {
		labels = append(labels, string(v))
	}
	return labels
}

// IsValidVerdict reports whether v belongs to the closed verdict set
func IsValidVerdict(v string) bool {
	switch Verdict(v) {
	case VerdictNTA, VerdictYTA, VerdictESH, VerdictNAH:
		return true
	}
	return false
}

// TopComment is a highly-scored top-level comment on a case
type TopComment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

// CaseDocument represents an immutable corpus record. Created during
// ingestion; read-only to this service.
type CaseDocument struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Body     string       `json:"text"`
	Verdict  Verdict      `json:"verdict"`
	Score    int          `json:"score"`
	Comments []TopComment `json:"comments"`
}
