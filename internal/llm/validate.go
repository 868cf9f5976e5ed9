package llm

import "strings"

const (
	maxEntities = 50
	maxFacts    = 50
	maxThemes   = 20
)

// ValidateSummary checks shape conformance of a decoded summary and clamps
// oversized lists. Returns a *ValidationError on violation.
func ValidateSummary(s *Summary) error {
	if s == nil {
		return &ValidationError{Reason: "nil summary"}
	}
	if strings.TrimSpace(s.Summary) == "" {
		return &ValidationError{Reason: "missing summary text"}
	}
	for i, e := range s.Entities {
		if strings.TrimSpace(e.Name) == "" {
			return &ValidationError{Reason: "entity with empty name"}
		}
		if e.Type == "" {
			s.Entities[i].Type = "unknown"
		}
	}
	for _, f := range s.KeyFacts {
		if strings.TrimSpace(f.Fact) == "" {
			return &ValidationError{Reason: "fact with empty text"}
		}
	}
	if len(s.Entities) > maxEntities {
		s.Entities = s.Entities[:maxEntities]
	}
	if len(s.KeyFacts) > maxFacts {
		s.KeyFacts = s.KeyFacts[:maxFacts]
	}
	if len(s.Themes) > maxThemes {
		s.Themes = s.Themes[:maxThemes]
	}
	return nil
}

// ValidateReport checks shape conformance of a decoded analysis report.
func ValidateReport(r *AnalysisReport) error {
	if r == nil {
		return &ValidationError{Reason: "nil report"}
	}
	if strings.TrimSpace(r.ExecutiveSummary) == "" {
		return &ValidationError{Reason: "missing executive summary"}
	}
	if len(r.MainConclusions) == 0 {
		return &ValidationError{Reason: "missing main conclusions"}
	}
	switch r.ConfidenceLevel {
	case "high", "medium", "low":
	case "":
		r.ConfidenceLevel = "medium"
	default:
		return &ValidationError{Reason: "invalid confidence level: " + r.ConfidenceLevel}
	}
	return nil
}
