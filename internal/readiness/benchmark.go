// internal/readiness/benchmark.go
package readiness

import (
	"fmt"
	"strings"
)

// BenchmarkRecord is the reference data for one (industry, size band) cohort.
type BenchmarkRecord struct {
	Industry       string            `json:"industry" yaml:"industry"`
	SizeBand       string            `json:"sizeBand" yaml:"size_band"`
	TypicalScore   int               `json:"typicalScore" yaml:"typical_score"`
	CohortMetadata map[string]string `json:"cohortMetadata,omitempty" yaml:"metadata,omitempty"`
}

// BenchmarkTable is a read-only cohort lookup. Implementations must be safe
// for unlimited concurrent readers.
type BenchmarkTable interface {
	// Cohort looks up a cohort; industry matching is case-insensitive.
	Cohort(industry, sizeBand string) (BenchmarkRecord, bool)
	// ReferenceScore is the cross-cohort average typical score.
	ReferenceScore() int
}

// Position is a cohort's placement relative to the reference score.
type Position string

const (
	PositionAbove Position = "above"
	PositionAt    Position = "at"
	PositionBelow Position = "below"
)

// BenchmarkResolver turns a cohort lookup into the benchmark_position component.
type BenchmarkResolver struct {
	rules Rules
}

func NewBenchmarkResolver(rules Rules) *BenchmarkResolver {
	return &BenchmarkResolver{rules: rules}
}

// Resolve never fails: an unknown industry falls back to the configured fallback
// cohort, and a missing fallback cohort scores as "at" the reference.
func (r *BenchmarkResolver) Resolve(table BenchmarkTable, industry, sizeBand string) ScoreComponent {
	cfg := r.rules.Benchmark
	if table == nil {
		return newComponent(r.rules, ComponentBenchmark, cfg.AtPoints,
			"no benchmark table loaded; scored at the reference level")
	}

	reference := table.ReferenceScore()
	record, ok := table.Cohort(industry, sizeBand)
	cohortNote := ""
	if !ok {
		record, ok = table.Cohort(cfg.FallbackIndustry, sizeBand)
		cohortNote = fmt.Sprintf(" (industry %q not benchmarked, using %s)", industry, cfg.FallbackIndustry)
	}
	if !ok {
		return newComponent(r.rules, ComponentBenchmark, cfg.AtPoints,
			fmt.Sprintf("no cohort for %s/%s; scored at the reference level of %d", industry, sizeBand, reference))
	}

	position := r.position(record.TypicalScore, reference)
	var points int
	switch position {
	case PositionAbove:
		points = cfg.AbovePoints
	case PositionBelow:
		points = cfg.BelowPoints
	default:
		points = cfg.AtPoints
	}

	explanation := fmt.Sprintf("%s/%s cohort typical score %d is %s the reference %d%s",
		record.Industry, record.SizeBand, record.TypicalScore, positionPhrase(position), reference, cohortNote)
	return newComponent(r.rules, ComponentBenchmark, points, explanation)
}

func (r *BenchmarkResolver) position(typical, reference int) Position {
	diff := typical - reference
	switch {
	case diff > r.rules.Benchmark.Tolerance:
		return PositionAbove
	case diff < -r.rules.Benchmark.Tolerance:
		return PositionBelow
	default:
		return PositionAt
	}
}

func positionPhrase(p Position) string {
	switch p {
	case PositionAbove:
		return "above"
	case PositionBelow:
		return "below"
	default:
		return "in line with"
	}
}

// CohortKey is the canonical map key for a cohort.
func CohortKey(industry, sizeBand string) string {
	return strings.ToLower(strings.TrimSpace(industry)) + "|" + strings.TrimSpace(sizeBand)
}
