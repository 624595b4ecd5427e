// cmd/readiness/score_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/readiness"
)

const exampleRequest = `{
  "subjectId": "acme",
  "input": {
    "painPointVolume": "1000_5000",
    "cloudReadiness": "yes",
    "automationTools": ["zapier"],
    "timeline": "this_year",
    "budget": "25_100k",
    "regulations": [],
    "industry": "Professional Services",
    "companySize": "51-200"
  }
}`

func defaultOpts() scoreOptions {
	return scoreOptions{
		InferenceMode:    "none",
		InferenceTimeout: time.Second,
		Format:           "json",
	}
}

func TestRunScore_SingleRequest(t *testing.T) {
	var out bytes.Buffer
	err := runScore(context.Background(), defaultOpts(), strings.NewReader(exampleRequest), &out, logger.NewTestLogger(t))
	require.NoError(t, err)

	var score readiness.ReadinessScore
	require.NoError(t, json.Unmarshal(out.Bytes(), &score))
	assert.Equal(t, 72, score.OverallScore)
	assert.Equal(t, "ready", score.Band)
	assert.Equal(t, readiness.ConfidenceMedium, score.Confidence)
	assert.Len(t, score.Components, 5)
}

func TestRunScore_BatchKeepsFailuresIsolated(t *testing.T) {
	batch := `[` + exampleRequest + `, {"subjectId": "bad", "input": {"timeline": "someday"}}]`

	var out bytes.Buffer
	err := runScore(context.Background(), defaultOpts(), strings.NewReader(batch), &out, logger.NewTestLogger(t))
	require.NoError(t, err)

	var rows []resultJSON
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 72, rows[0].Score.OverallScore)
	assert.Empty(t, rows[0].Error)
	assert.Nil(t, rows[1].Score)
	assert.Contains(t, rows[1].Error, "timeline")
}

func TestRunScore_StrictRejectsPartialInput(t *testing.T) {
	opts := defaultOpts()
	opts.Strict = true

	var out bytes.Buffer
	err := runScore(context.Background(), opts,
		strings.NewReader(`{"subjectId": "acme", "input": {"timeline": "immediate"}}`), &out, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.True(t, readiness.IsValidationError(err))
	assert.Empty(t, out.String())
}

func TestRunScore_TextFormat(t *testing.T) {
	opts := defaultOpts()
	opts.Format = "text"

	var out bytes.Buffer
	err := runScore(context.Background(), opts, strings.NewReader(exampleRequest), &out, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "acme\t72/100 (ready, confidence MEDIUM)\n", out.String())
}

func TestRunScore_CustomBenchmarkTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmarks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: pilot
reference_score: 70
cohorts:
  - industry: Professional Services
    size_band: 51-200
    typical_score: 60
`), 0o600))

	opts := defaultOpts()
	opts.BenchmarkPath = path

	var out bytes.Buffer
	require.NoError(t, runScore(context.Background(), opts, strings.NewReader(exampleRequest), &out, logger.NewTestLogger(t)))

	var score readiness.ReadinessScore
	require.NoError(t, json.Unmarshal(out.Bytes(), &score))
	benchmark, ok := score.Component(readiness.ComponentBenchmark)
	require.True(t, ok)
	assert.Equal(t, 2, benchmark.Points)
}

func TestRunScore_InputErrors(t *testing.T) {
	log := logger.NewNoOpLogger()

	err := runScore(context.Background(), defaultOpts(), strings.NewReader("  "), &bytes.Buffer{}, log)
	assert.ErrorContains(t, err, "no scoring request")

	err = runScore(context.Background(), defaultOpts(), strings.NewReader("{"), &bytes.Buffer{}, log)
	assert.ErrorContains(t, err, "parse request")

	opts := defaultOpts()
	opts.InferenceMode = "http"
	err = runScore(context.Background(), opts, strings.NewReader(exampleRequest), &bytes.Buffer{}, log)
	assert.ErrorContains(t, err, "--inference-url is required")

	opts.InferenceMode = "crystal-ball"
	err = runScore(context.Background(), opts, strings.NewReader(exampleRequest), &bytes.Buffer{}, log)
	assert.ErrorContains(t, err, "unknown inference mode")
}

func TestRulesCommands(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"rules", "show"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "version:")

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, out.Bytes(), 0o600))

	out.Reset()
	rootCmd.SetArgs([]string{"rules", "validate", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "are valid")
}
