// internal/benchmarks/store.go
package benchmarks

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/common/metrics"
	"readiness-scorer/internal/readiness"
)

// Loader produces a fresh benchmark snapshot from some backing source.
type Loader interface {
	Name() string
	Load(ctx context.Context) (*Table, error)
}

// Store publishes the active Table. Readers never block; Refresh swaps the
// pointer only after a new snapshot loads and validates successfully.
type Store struct {
	current atomic.Pointer[Table]
	loader  Loader
	log     logger.Logger
}

func NewStore(initial *Table, loader Loader, log logger.Logger) (*Store, error) {
	if initial == nil {
		return nil, errors.New("benchmarks: initial table is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Store{loader: loader, log: log}
	s.current.Store(initial)
	metrics.BenchmarkCohorts.Set(float64(initial.Len()))
	return s, nil
}

// Current implements readiness.TableProvider.
func (s *Store) Current() readiness.BenchmarkTable {
	return s.current.Load()
}

// Snapshot returns the active table with its concrete type.
func (s *Store) Snapshot() *Table {
	return s.current.Load()
}

// Refresh loads a new snapshot. On failure the previous snapshot stays active.
func (s *Store) Refresh(ctx context.Context) error {
	if s.loader == nil {
		return nil
	}
	source := s.loader.Name()

	next, err := s.loader.Load(ctx)
	if err != nil {
		metrics.BenchmarkRefreshes.WithLabelValues(source, "error").Inc()
		s.log.Warn("Benchmark refresh failed, keeping previous table", map[string]interface{}{
			"source":  source,
			"error":   err.Error(),
			"version": s.Snapshot().Version(),
		})
		return err
	}

	previous := s.current.Swap(next)
	metrics.BenchmarkRefreshes.WithLabelValues(source, "success").Inc()
	metrics.BenchmarkCohorts.Set(float64(next.Len()))
	s.log.Info("Benchmark table refreshed", map[string]interface{}{
		"source":          source,
		"version":         next.Version(),
		"previousVersion": previous.Version(),
		"cohorts":         next.Len(),
	})
	return nil
}

// Run refreshes every interval until ctx is done. A non-positive interval returns immediately.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.loader == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// FileLoader reads a YAML table file on each refresh.
type FileLoader struct {
	Path string
}

func (l FileLoader) Name() string { return "file" }

func (l FileLoader) Load(ctx context.Context) (*Table, error) {
	return LoadFile(l.Path)
}

// EmbeddedLoader always returns the compiled-in table.
type EmbeddedLoader struct{}

func (EmbeddedLoader) Name() string { return "embedded" }

func (EmbeddedLoader) Load(ctx context.Context) (*Table, error) {
	return ParseYAML(defaultTableYAML)
}
