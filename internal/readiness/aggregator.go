// internal/readiness/aggregator.go
package readiness

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Aggregator combines components into a ReadinessScore and writes the templated explanation.
type Aggregator struct {
	rules Rules
}

func NewAggregator(rules Rules) *Aggregator {
	return &Aggregator{rules: rules}
}

// Aggregate validates every component before summing. A component outside its
// contract yields *InternalConsistencyError; it is never clamped into range.
func (a *Aggregator) Aggregate(components []ScoreComponent, confidence Confidence, confidenceReason string, generatedAt time.Time) (*ReadinessScore, error) {
	ordered, err := a.checkComponents(components)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range ordered {
		total += c.Points
	}
	overall := clamp(total, 0, 100)

	strengths := a.strengths(ordered)
	gaps := a.gaps(ordered)
	band := a.band(overall)

	return &ReadinessScore{
		OverallScore:     overall,
		Band:             band,
		Components:       ordered,
		Confidence:       confidence,
		ConfidenceReason: confidenceReason,
		ExecutiveSummary: a.summary(overall, band, ordered, strengths, gaps, confidence),
		KeyStrengths:     a.phrases(strengths, func(p Phrasebook) string { return p.Strength }),
		KeyGaps:          a.phrases(gaps, func(p Phrasebook) string { return p.Gap }),
		RulesVersion:     a.rules.Version,
		GeneratedAt:      generatedAt,
	}, nil
}

// checkComponents returns a fresh copy of components in canonical order.
func (a *Aggregator) checkComponents(components []ScoreComponent) ([]ScoreComponent, error) {
	rank := make(map[string]int, len(ComponentOrder))
	for i, name := range ComponentOrder {
		rank[name] = i
	}

	seen := make(map[string]bool, len(components))
	out := make([]ScoreComponent, 0, len(components))
	for _, c := range components {
		violation := ""
		switch _, known := rank[c.Name]; {
		case !known:
			violation = "unknown component"
		case seen[c.Name]:
			violation = "duplicate component"
		case c.MaxPoints <= 0:
			violation = "max_points must be positive"
		case c.Points < 0:
			violation = "points must not be negative"
		case c.Points > c.MaxPoints:
			violation = "points exceed max_points"
		}
		if violation != "" {
			return nil, &InternalConsistencyError{
				Component: c.Name,
				Points:    c.Points,
				MaxPoints: c.MaxPoints,
				Reason:    violation,
			}
		}
		seen[c.Name] = true
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Name] < rank[out[j].Name] })
	return out, nil
}

func (a *Aggregator) strengths(components []ScoreComponent) []ScoreComponent {
	var picked []ScoreComponent
	for _, c := range components {
		if !c.Fallback() && c.Points*100 >= a.rules.Explanations.StrengthPercent*c.MaxPoints {
			picked = append(picked, c)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Points*picked[j].MaxPoints > picked[j].Points*picked[i].MaxPoints
	})
	return limit(picked, a.rules.Explanations.MaxStrengths)
}

func (a *Aggregator) gaps(components []ScoreComponent) []ScoreComponent {
	var picked []ScoreComponent
	for _, c := range components {
		if !c.Fallback() && c.Points*100 <= a.rules.Explanations.GapPercent*c.MaxPoints {
			picked = append(picked, c)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Points*picked[j].MaxPoints < picked[j].Points*picked[i].MaxPoints
	})
	return limit(picked, a.rules.Explanations.MaxGaps)
}

func limit(components []ScoreComponent, n int) []ScoreComponent {
	if len(components) > n {
		return components[:n]
	}
	return components
}

func (a *Aggregator) band(overall int) string {
	for _, b := range a.rules.Explanations.Bands {
		if overall >= b.Min {
			return b.Label
		}
	}
	return a.rules.Explanations.Bands[len(a.rules.Explanations.Bands)-1].Label
}

func (a *Aggregator) phrases(components []ScoreComponent, pick func(Phrasebook) string) []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, fmt.Sprintf("%s (%d/%d)", pick(a.rules.Explanations.Phrases[c.Name]), c.Points, c.MaxPoints))
	}
	return out
}

func (a *Aggregator) summary(overall int, band string, components, strengths, gaps []ScoreComponent, confidence Confidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Automation readiness is %d/100, in the %s band.", overall, band)

	if len(strengths) > 0 {
		fmt.Fprintf(&b, " Strengths: %s.", a.labels(strengths))
	}
	if len(gaps) > 0 {
		fmt.Fprintf(&b, " Needs attention: %s.", a.labels(gaps))
	}
	if len(strengths) == 0 && len(gaps) == 0 {
		b.WriteString(" No component stands out as a clear strength or gap.")
	}

	for _, c := range components {
		if c.Fallback() {
			fmt.Fprintf(&b, " %s could not be assessed and contributed no points.", c.Label)
		}
	}
	fmt.Fprintf(&b, " Confidence: %s.", confidence)
	return b.String()
}

func (a *Aggregator) labels(components []ScoreComponent) string {
	names := make([]string, len(components))
	for i, c := range components {
		names[i] = strings.ToLower(a.rules.Explanations.Phrases[c.Name].Label)
	}
	return strings.Join(names, ", ")
}
