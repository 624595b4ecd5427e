// internal/readiness/component.go
package readiness

import "time"

// ComponentStatus distinguishes scored data from a fallback placeholder.
type ComponentStatus string

const (
	StatusScored   ComponentStatus = "scored"
	StatusFallback ComponentStatus = "fallback"
)

// ScoreComponent is one scored dimension. Invariant: 0 <= Points <= MaxPoints.
type ScoreComponent struct {
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Points      int             `json:"points"`
	MaxPoints   int             `json:"maxPoints"`
	Explanation string          `json:"explanation"`
	Status      ComponentStatus `json:"status"`
}

// Fallback reports whether the component carries no real signal.
func (c ScoreComponent) Fallback() bool {
	return c.Status == StatusFallback
}

// Confidence is the qualitative trust level of a score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ReadinessScore is the immutable result of one scoring call.
type ReadinessScore struct {
	OverallScore     int              `json:"overallScore"`
	Band             string           `json:"band"`
	Components       []ScoreComponent `json:"components"`
	Confidence       Confidence       `json:"confidence"`
	ConfidenceReason string           `json:"confidenceReason"`
	ExecutiveSummary string           `json:"executiveSummary"`
	KeyStrengths     []string         `json:"keyStrengths"`
	KeyGaps          []string         `json:"keyGaps"`
	RulesVersion     string           `json:"rulesVersion"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

// Component returns the named component, if present.
func (s ReadinessScore) Component(name string) (ScoreComponent, bool) {
	for _, c := range s.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ScoreComponent{}, false
}

func newComponent(rules Rules, name string, points int, explanation string) ScoreComponent {
	return ScoreComponent{
		Name:        name,
		Label:       rules.Explanations.Phrases[name].Label,
		Points:      points,
		MaxPoints:   rules.MaxPoints(name),
		Explanation: explanation,
		Status:      StatusScored,
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
