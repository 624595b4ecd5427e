// internal/workers/assessment/check-readiness-score/models.go
package checkreadinessscore

import (
	"time"

	"readiness-scorer/internal/readiness"
)

// Input is read from the process variables.
type Input struct {
	SubjectID        string                   `json:"subjectId"`
	SubjectReference string                   `json:"subjectReference,omitempty"`
	Answers          readiness.ReadinessInput `json:"answers"`
}

// Output is merged back into the process instance.
type Output struct {
	RequestID        string                     `json:"readinessRequestId"`
	ReadinessScore   int                        `json:"readinessScore"`
	Band             string                     `json:"readinessBand"`
	Confidence       string                     `json:"readinessConfidence"`
	ConfidenceReason string                     `json:"readinessConfidenceReason"`
	ExecutiveSummary string                     `json:"executiveSummary"`
	KeyStrengths     []string                   `json:"keyStrengths"`
	KeyGaps          []string                   `json:"keyGaps"`
	ScoreBreakdown   []readiness.ScoreComponent `json:"scoreBreakdown"`
	RulesVersion     string                     `json:"rulesVersion"`
	ScoredAt         time.Time                  `json:"scoredAt"`
}

func newOutput(requestID string, score *readiness.ReadinessScore) *Output {
	return &Output{
		RequestID:        requestID,
		ReadinessScore:   score.OverallScore,
		Band:             score.Band,
		Confidence:       string(score.Confidence),
		ConfidenceReason: score.ConfidenceReason,
		ExecutiveSummary: score.ExecutiveSummary,
		KeyStrengths:     score.KeyStrengths,
		KeyGaps:          score.KeyGaps,
		ScoreBreakdown:   score.Components,
		RulesVersion:     score.RulesVersion,
		ScoredAt:         score.GeneratedAt,
	}
}
