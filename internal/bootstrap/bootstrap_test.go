// internal/bootstrap/bootstrap_test.go
package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/common/config"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/inference"
	"readiness-scorer/internal/readiness"
)

func fastConnect(t *testing.T) {
	t.Helper()
	attempts, delay := ConnectAttempts, ConnectDelay
	ConnectAttempts, ConnectDelay = 2, time.Millisecond
	t.Cleanup(func() { ConnectAttempts, ConnectDelay = attempts, delay })
}

func boolPtr(v bool) *bool { return &v }

// ==========================
// Rules Tests
// ==========================

func TestRules_AppliesOverrides(t *testing.T) {
	rules, err := Rules(config.ScoringConfig{AllowPartial: boolPtr(false), InferenceTimeout: 1500})
	require.NoError(t, err)

	assert.False(t, rules.AllowPartial)
	assert.Equal(t, 1500*time.Millisecond, rules.InferenceTimeout)
	assert.Equal(t, readiness.DefaultRules().Version, rules.Version)
}

func TestRules_LoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"2026.2-pilot\"\n"), 0o600))

	rules, err := Rules(config.ScoringConfig{RulesPath: path, AllowPartial: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "2026.2-pilot", rules.Version)
	assert.True(t, rules.AllowPartial)
}

func TestRules_FileAllowPartialKeptWhenConfigUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: strict\nallow_partial: false\n"), 0o600))

	rules, err := Rules(config.ScoringConfig{RulesPath: path})
	require.NoError(t, err)
	assert.False(t, rules.AllowPartial)

	rules, err = Rules(config.ScoringConfig{RulesPath: path, AllowPartial: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, rules.AllowPartial)
}

func TestRules_MissingFile(t *testing.T) {
	_, err := Rules(config.ScoringConfig{RulesPath: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.ErrorContains(t, err, "read rules")
}

// ==========================
// Benchmark Source Tests
// ==========================

func TestBenchmarkLoader_BySource(t *testing.T) {
	loader, err := BenchmarkLoader(config.BenchmarksConfig{Source: config.BenchmarkSourceEmbedded}, nil)
	require.NoError(t, err)
	assert.Equal(t, "embedded", loader.Name())

	loader, err = BenchmarkLoader(config.BenchmarksConfig{Source: config.BenchmarkSourceFile, TablePath: "t.yaml"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "file", loader.Name())

	_, err = BenchmarkLoader(config.BenchmarksConfig{Source: config.BenchmarkSourcePostgres}, &Backends{})
	assert.ErrorContains(t, err, "needs a postgres connection")

	_, err = BenchmarkLoader(config.BenchmarksConfig{Source: config.BenchmarkSourceElasticsearch}, nil)
	assert.ErrorContains(t, err, "needs an elasticsearch connection")

	_, err = BenchmarkLoader(config.BenchmarksConfig{Source: "s3"}, nil)
	assert.ErrorContains(t, err, "not supported")
}

func TestBenchmarkStore_LoadsFileSource(t *testing.T) {
	custom, err := benchmarks.NewTable("pilot", 50, []readiness.BenchmarkRecord{
		{Industry: "Logistics", SizeBand: "201-500", TypicalScore: 61},
		{Industry: "Other", SizeBand: "201-500", TypicalScore: 45},
	})
	require.NoError(t, err)
	out, err := yaml.Marshal(custom)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "benchmarks.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))

	store, err := BenchmarkStore(context.Background(), config.BenchmarksConfig{
		Source: config.BenchmarkSourceFile, TablePath: path,
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "pilot", store.Snapshot().Version())
	_, ok := store.Current().Cohort("logistics", "201-500")
	assert.True(t, ok)
}

func TestBenchmarkStore_MissingFileFailsStartup(t *testing.T) {
	_, err := BenchmarkStore(context.Background(), config.BenchmarksConfig{
		Source: config.BenchmarkSourceFile, TablePath: filepath.Join(t.TempDir(), "absent.yaml"),
	}, nil, logger.NewTestLogger(t))
	assert.ErrorContains(t, err, "load benchmark table")
}

// ==========================
// Analyzer Tests
// ==========================

func TestAnalyzer_ByMode(t *testing.T) {
	log := logger.NewTestLogger(t)

	assert.Nil(t, Analyzer(config.InferenceConfig{Mode: config.InferenceModeNone}, nil, log))

	_, ok := Analyzer(config.InferenceConfig{Mode: config.InferenceModeHTTP, BaseURL: "http://analysis:8081", Timeout: 1000}, nil, log).(*inference.HTTPAnalyzer)
	assert.True(t, ok)

	_, ok = Analyzer(config.InferenceConfig{Mode: config.InferenceModeProbe, Timeout: 1000}, nil, log).(*inference.SiteProbe)
	assert.True(t, ok)
}

func TestAnalyzer_WrapsWithCache(t *testing.T) {
	fastConnect(t)
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Benchmarks: config.BenchmarksConfig{Source: config.BenchmarkSourceEmbedded},
		Inference:  config.InferenceConfig{Mode: config.InferenceModeProbe, CacheEnabled: true, CacheTTL: 60, Timeout: 1000},
		Database:   config.DatabaseConfig{Redis: config.RedisConfig{Address: mr.Addr()}},
	}
	backends, err := Connect(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer backends.Close()
	require.NotNil(t, backends.Redis)
	assert.Nil(t, backends.Postgres)

	_, ok := Analyzer(cfg.Inference, backends, logger.NewTestLogger(t)).(*inference.CachedAnalyzer)
	assert.True(t, ok)
}

func TestConnect_GivesUpOnUnreachableRedis(t *testing.T) {
	fastConnect(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), &config.Config{
		Inference: config.InferenceConfig{CacheEnabled: true},
		Database:  config.DatabaseConfig{Redis: config.RedisConfig{Address: addr}},
	}, logger.NewTestLogger(t))
	assert.ErrorContains(t, err, "Redis connection failed after 2 attempts")
}

// ==========================
// Retry Tests
// ==========================

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewNoOpLogger()
	calls := 0
	err := retryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, log, "probe")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = retryWithBackoff(ctx, func() error { return errors.New("down") }, 5, time.Hour, log, "probe")
	assert.ErrorIs(t, err, context.Canceled)
}
