// internal/workers/assessment/check-readiness-score/handler_test.go
package checkreadinessscore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/common/config"
	"readiness-scorer/internal/common/errors"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/readiness"
)

// ==========================
// Test Helper Functions
// ==========================

var scoredAt = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func createTestHandler(t *testing.T, scorer Scorer) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Config: &Config{Enabled: true, MaxJobsActive: 1, Timeout: 5 * time.Second},
		Scorer: scorer,
		Logger: logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	h.newID = func() string { return "req-1" }
	return h
}

func createTestScorer(t *testing.T) *readiness.Scorer {
	t.Helper()
	s, err := readiness.NewScorer(
		readiness.DefaultRules(),
		readiness.StaticTable(benchmarks.Default()),
		nil,
		logger.NewTestLogger(t),
		readiness.WithClock(func() time.Time { return scoredAt }),
	)
	require.NoError(t, err)
	return s
}

func createTestVariables() map[string]interface{} {
	return map[string]interface{}{
		"subjectId": "acme",
		"answers": map[string]interface{}{
			"painPointVolume": "1000_5000",
			"cloudReadiness":  "yes",
			"automationTools": []interface{}{"zapier"},
			"timeline":        "this_year",
			"budget":          "25_100k",
			"regulations":     []interface{}{},
			"industry":        "Professional Services",
			"companySize":     "51-200",
		},
		"processStage": "qualification",
	}
}

// stubScorer returns a fixed error once ctx is done, or a fixed score.
type stubScorer struct {
	err   error
	score *readiness.ReadinessScore
	calls int
}

func (s *stubScorer) Score(ctx context.Context, _ readiness.Request) (*readiness.ReadinessScore, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.score, nil
}

func (s *stubScorer) Rules() readiness.Rules { return readiness.DefaultRules() }

func asStandardError(t *testing.T, err error) *errors.StandardError {
	t.Helper()
	require.Error(t, err)
	return errors.FromScoringError(err)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_ExampleSubmission(t *testing.T) {
	h := createTestHandler(t, createTestScorer(t))

	input, err := h.Decode(createTestVariables())
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "req-1", output.RequestID)
	assert.Equal(t, 72, output.ReadinessScore)
	assert.Equal(t, "ready", output.Band)
	assert.Equal(t, "MEDIUM", output.Confidence)
	assert.Equal(t, scoredAt, output.ScoredAt)
	assert.Equal(t, readiness.DefaultRules().Version, output.RulesVersion)
	assert.NotEmpty(t, output.ExecutiveSummary)
	require.Len(t, output.ScoreBreakdown, 5)

	sum := 0
	for _, c := range output.ScoreBreakdown {
		sum += c.Points
	}
	assert.Equal(t, output.ReadinessScore, sum)
}

func TestExecute_PartialAnswersAreScored(t *testing.T) {
	h := createTestHandler(t, createTestScorer(t))

	input, err := h.Decode(map[string]interface{}{
		"subjectId": "acme",
		"answers": map[string]interface{}{
			"painPointVolume": "over_5000",
			"timeline":        nil,
			"budget":          "",
		},
	})
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "LOW", output.Confidence)
	assert.Contains(t, output.ConfidenceReason, "defaulted answers")
}

// ==========================
// Validation Tests
// ==========================

func TestDecode_RejectsInvalidAnswers(t *testing.T) {
	h := createTestHandler(t, createTestScorer(t))

	tests := []struct {
		name   string
		mutate func(vars map[string]interface{})
		field  string
	}{
		{"unknown timeline", func(v map[string]interface{}) {
			v["answers"].(map[string]interface{})["timeline"] = "someday"
		}, "timeline"},
		{"unknown tool", func(v map[string]interface{}) {
			v["answers"].(map[string]interface{})["automationTools"] = []interface{}{"zapier", "excel"}
		}, "automationTools.1"},
		{"unexpected answer", func(v map[string]interface{}) {
			v["answers"].(map[string]interface{})["favoriteColor"] = "blue"
		}, "favoriteColor"},
		{"missing subject", func(v map[string]interface{}) {
			delete(v, "subjectId")
		}, "subjectId"},
		{"industry too long", func(v map[string]interface{}) {
			v["answers"].(map[string]interface{})["industry"] = strings.Repeat("a", readiness.MaxIndustryLength+1)
		}, "industry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := createTestVariables()
			tt.mutate(vars)

			_, err := h.Decode(vars)
			std := asStandardError(t, err)
			assert.Equal(t, errors.ErrCodeInputInvalid, std.Code)
			assert.False(t, std.Retryable)
			assert.Contains(t, std.Metadata["invalidFields"], tt.field)
		})
	}
}

func TestExecute_UnbenchmarkedIndustryUsesOtherCohort(t *testing.T) {
	h := createTestHandler(t, createTestScorer(t))

	for _, industry := range []string{"Santé publique", strings.Repeat("Logística ", 8)} {
		vars := createTestVariables()
		vars["answers"].(map[string]interface{})["industry"] = industry
		input, err := h.Decode(vars)
		require.NoError(t, err)

		output, err := h.Execute(context.Background(), input)
		require.NoError(t, err, industry)

		var benchmark *readiness.ScoreComponent
		for i := range output.ScoreBreakdown {
			if output.ScoreBreakdown[i].Name == readiness.ComponentBenchmark {
				benchmark = &output.ScoreBreakdown[i]
			}
		}
		require.NotNil(t, benchmark)
		assert.Contains(t, benchmark.Explanation, "using Other")
	}
}

// ==========================
// Lifecycle Tests
// ==========================

func TestExecute_DeadlineBecomesTimeout(t *testing.T) {
	scorer := &stubScorer{err: readiness.ErrScoringCancelled}
	h := createTestHandler(t, scorer)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := h.Execute(ctx, &Input{SubjectID: "acme"})
	std := asStandardError(t, err)
	assert.Equal(t, errors.ErrCodeScoringTimeout, std.Code)
	assert.True(t, std.Retryable)
	assert.Equal(t, 1, scorer.calls)
}

func TestExecute_CancelBecomesCancelled(t *testing.T) {
	h := createTestHandler(t, &stubScorer{err: readiness.ErrScoringCancelled})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{SubjectID: "acme"})
	std := asStandardError(t, err)
	assert.Equal(t, errors.ErrCodeScoringCancelled, std.Code)
}

func TestExecute_InternalConsistencyIsNotRetried(t *testing.T) {
	h := createTestHandler(t, &stubScorer{err: &readiness.InternalConsistencyError{
		Component: "benchmark", Points: 21, MaxPoints: 20, Reason: "points above max",
	}})

	_, err := h.Execute(context.Background(), &Input{SubjectID: "acme"})
	std := asStandardError(t, err)
	assert.Equal(t, errors.ErrCodeInternalConsistency, std.Code)
	assert.Equal(t, 0, errors.GetRetryCount(std.Code))
}

// ==========================
// Configuration Tests
// ==========================

func TestNewHandler_RequiresScorer(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Logger: logger.NewNoOpLogger()})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{
		Scorer: &stubScorer{},
		Config: &Config{MaxJobsActive: 1},
		Logger: logger.NewNoOpLogger(),
	})
	assert.ErrorContains(t, err, "timeout must be positive")
}

func TestConfigFromApp(t *testing.T) {
	assert.Equal(t, DefaultConfig(), ConfigFromApp(nil))

	cfg := ConfigFromApp(&config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 12, Timeout: 1500},
	}})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 12, cfg.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
}

func TestGetInputSchema_AcceptsUnansweredValues(t *testing.T) {
	schema := GetInputSchema(readiness.DefaultVocabulary())

	answers := schema.Properties["answers"]
	assert.Contains(t, answers.Properties[readiness.FieldTimeline].Enum, "")
	assert.Contains(t, answers.Properties[readiness.FieldTimeline].Enum, "immediate")
	assert.Equal(t, "array", answers.Properties[readiness.FieldRegulations].Type)
	assert.Equal(t, readiness.MaxIndustryLength, *answers.Properties[readiness.FieldIndustry].MaxLength)
}
