// internal/readiness/scorer.go
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/common/metrics"
)

const defaultBatchLimit = 8

// TableProvider hands out the benchmark snapshot to use for one call.
type TableProvider interface {
	Current() BenchmarkTable
}

// StaticTable serves a single, never-refreshed table.
func StaticTable(t BenchmarkTable) TableProvider {
	return staticTable{t}
}

type staticTable struct{ t BenchmarkTable }

func (s staticTable) Current() BenchmarkTable { return s.t }

// Request is one scoring call. SubjectReference is passed to the Analyzer
// verbatim (typically a website URL) and may be empty.
type Request struct {
	SubjectID        string         `json:"subjectId"`
	SubjectReference string         `json:"subjectReference,omitempty"`
	Input            ReadinessInput `json:"input"`
}

// BatchResult pairs a batch item with its own outcome.
type BatchResult struct {
	SubjectID string
	Score     *ReadinessScore
	Err       error
}

// Scorer runs the normalize, benchmark, inference, confidence and aggregate steps.
// A Scorer holds no per-call state and is safe for concurrent use.
type Scorer struct {
	rules      Rules
	tables     TableProvider
	normalizer *Normalizer
	resolver   *BenchmarkResolver
	adapter    *InferenceAdapter
	aggregator *Aggregator
	log        logger.Logger
	tracer     trace.Tracer
	now        func() time.Time
	batchLimit int
}

type Option func(*Scorer)

// WithClock overrides the GeneratedAt clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithBatchLimit bounds ScoreBatch concurrency.
func WithBatchLimit(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Scorer) { s.tracer = t }
}

// NewScorer validates rules and wires the components. analyzer may be nil, in
// which case every score carries a fallback website_signals component.
func NewScorer(rules Rules, tables TableProvider, analyzer Analyzer, log logger.Logger, opts ...Option) (*Scorer, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if tables == nil {
		return nil, errors.New("readiness: benchmark table provider is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	normalizer, err := NewNormalizer(rules)
	if err != nil {
		return nil, err
	}
	s := &Scorer{
		rules:      rules,
		tables:     tables,
		normalizer: normalizer,
		resolver:   NewBenchmarkResolver(rules),
		adapter:    NewInferenceAdapter(rules, analyzer),
		aggregator: NewAggregator(rules),
		log:        log,
		tracer:     otel.Tracer("readiness-scorer/readiness"),
		now:        time.Now,
		batchLimit: defaultBatchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Rules returns the rules the scorer was built with.
func (s *Scorer) Rules() Rules {
	return s.rules
}

// Score produces a complete ReadinessScore or an error; never both.
func (s *Scorer) Score(ctx context.Context, req Request) (*ReadinessScore, error) {
	ctx, span := s.tracer.Start(ctx, "readiness.Score",
		trace.WithAttributes(attribute.String("subject.id", req.SubjectID)))
	defer span.End()

	log := s.log.WithFields(map[string]interface{}{
		"subjectId":    req.SubjectID,
		"rulesVersion": s.rules.Version,
	})

	score, err := s.score(ctx, req, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recordFailure(err, log)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("readiness.overall_score", score.OverallScore),
		attribute.String("readiness.confidence", string(score.Confidence)),
	)
	metrics.ReadinessScoresTotal.WithLabelValues(score.Band, string(score.Confidence)).Inc()
	metrics.ReadinessScoreValue.Observe(float64(score.OverallScore))
	log.Info("Readiness score computed", map[string]interface{}{
		"overallScore": score.OverallScore,
		"band":         score.Band,
		"confidence":   score.Confidence,
	})
	return score, nil
}

func (s *Scorer) score(ctx context.Context, req Request, log logger.Logger) (*ReadinessScore, error) {
	if ctx.Err() != nil {
		return nil, ErrScoringCancelled
	}

	normalized, err := s.normalizer.Normalize(req.Input)
	if err != nil {
		return nil, err
	}
	if !normalized.Complete() {
		log.Debug("Partial submission defaulted", map[string]interface{}{
			"defaulted": normalized.Defaulted,
		})
	}

	components := s.normalizer.Components(normalized)
	components = append(components, s.resolver.Resolve(s.tables.Current(), normalized.Industry, normalized.CompanySize))

	inferred, outcome, err := s.adapter.Run(ctx, req.SubjectReference)
	if err != nil {
		return nil, err
	}
	components = append(components, inferred)
	metrics.InferenceOutcomes.WithLabelValues(outcome.Label()).Inc()
	if outcome.Elapsed > 0 {
		metrics.InferenceDuration.Observe(outcome.Elapsed.Seconds())
	}
	if outcome.Fallback {
		log.Warn("Website signals unavailable, using fallback", map[string]interface{}{
			"reason": outcome.Reason,
		})
	}

	confidence, reason := AssessConfidence(SignalStateFor(normalized, outcome))

	score, err := s.aggregator.Aggregate(components, confidence, reason, s.now().UTC())
	if err != nil {
		return nil, err
	}
	// All-or-nothing: a caller that gave up while we aggregated gets no score.
	if ctx.Err() != nil {
		return nil, ErrScoringCancelled
	}
	return score, nil
}

func (s *Scorer) recordFailure(err error, log logger.Logger) {
	var ves ValidationErrors
	switch {
	case errors.As(err, &ves):
		for _, ve := range ves {
			metrics.ReadinessValidationFailures.WithLabelValues(ve.Field).Inc()
		}
		metrics.ReadinessScoringFailures.WithLabelValues("validation").Inc()
		log.Warn("Readiness input rejected", map[string]interface{}{
			"fields": ves.Fields(),
			"error":  err.Error(),
		})
	case IsInternalConsistencyError(err):
		metrics.ReadinessScoringFailures.WithLabelValues("internal_consistency").Inc()
		log.Error("Score component violated its contract", map[string]interface{}{
			"error": err.Error(),
		})
	case errors.Is(err, ErrScoringCancelled):
		metrics.ReadinessScoringFailures.WithLabelValues("cancelled").Inc()
		log.Info("Readiness scoring cancelled by caller", nil)
	default:
		metrics.ReadinessScoringFailures.WithLabelValues("other").Inc()
		log.Error("Readiness scoring failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// ScoreBatch scores independent requests concurrently. Results are returned in
// request order; one item's failure never affects another.
func (s *Scorer) ScoreBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))
	var g errgroup.Group
	g.SetLimit(s.batchLimit)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			score, err := s.Score(ctx, req)
			results[i] = BatchResult{SubjectID: req.SubjectID, Score: score, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Summary is a one-line rendering used by the CLI and logs.
func (r ReadinessScore) Summary() string {
	return fmt.Sprintf("%d/100 (%s, confidence %s)", r.OverallScore, r.Band, r.Confidence)
}
