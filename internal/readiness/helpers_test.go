// internal/readiness/helpers_test.go
package readiness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"readiness-scorer/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type mapTable struct {
	reference int
	cohorts   map[string]BenchmarkRecord
}

func (m *mapTable) Cohort(industry, sizeBand string) (BenchmarkRecord, bool) {
	r, ok := m.cohorts[CohortKey(industry, sizeBand)]
	return r, ok
}

func (m *mapTable) ReferenceScore() int { return m.reference }

func newMapTable(reference int, records ...BenchmarkRecord) *mapTable {
	t := &mapTable{reference: reference, cohorts: map[string]BenchmarkRecord{}}
	for _, r := range records {
		t.cohorts[CohortKey(r.Industry, r.SizeBand)] = r
	}
	return t
}

func createTestTable() *mapTable {
	return newMapTable(55,
		BenchmarkRecord{Industry: "Professional Services", SizeBand: "51-200", TypicalScore: 64},
		BenchmarkRecord{Industry: "Healthcare", SizeBand: "51-200", TypicalScore: 44},
		BenchmarkRecord{Industry: "Retail", SizeBand: "51-200", TypicalScore: 57},
		BenchmarkRecord{Industry: "Other", SizeBand: "51-200", TypicalScore: 53},
		BenchmarkRecord{Industry: "Other", SizeBand: "11-50", TypicalScore: 48},
	)
}

// createExampleInput is the reference professional-services submission.
func createExampleInput() ReadinessInput {
	return ReadinessInput{
		PainPointVolume: "1000_5000",
		CloudReadiness:  "yes",
		AutomationTools: []string{"zapier"},
		Timeline:        "this_year",
		Budget:          "25_100k",
		Regulations:     []string{},
		Industry:        "Professional Services",
		CompanySize:     "51-200",
	}
}

func newTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

func newTestNormalizer(t *testing.T, rules Rules) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(rules)
	require.NoError(t, err)
	return n
}
