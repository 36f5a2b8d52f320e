package models

import "time"

// Severity grades how serious a detected violation is.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Report is the compliance verdict produced for a finished audit.
type Report struct {
	Violation       bool     `json:"violation"`
	ViolatedRules   []string `json:"violatedRules"`
	FailureReasons  []string `json:"failureReasons"`
	Recommendations []string `json:"recommendations"`
	Explanation     string   `json:"explanation"`
	Severity        Severity `json:"severity"`
	Confidence      float64  `json:"confidence"`
}

// Clone returns a copy that shares no slices with r.
func (r Report) Clone() Report {
	out := r
	out.ViolatedRules = append([]string{}, r.ViolatedRules...)
	out.FailureReasons = append([]string{}, r.FailureReasons...)
	out.Recommendations = append([]string{}, r.Recommendations...)
	return out
}

// RuleChunk is one indexed passage of the regulatory knowledge base.
type RuleChunk struct {
	Source  string `json:"source"`
	Ordinal int    `json:"ordinal"`
	Content string `json:"content"`
}

// ScoredChunk is a RuleChunk returned by a search with its relevance rank.
type ScoredChunk struct {
	RuleChunk
	Score float64 `json:"score"`
}

// SourceSummary describes one ingested knowledge-base document.
type SourceSummary struct {
	Source    string    `json:"source"`
	Chunks    int       `json:"chunks"`
	UpdatedAt time.Time `json:"updatedAt"`
}
