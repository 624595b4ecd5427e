// internal/readiness/inference.go
package readiness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Quality grades an inferred signal.
type Quality string

const (
	QualityHigh        Quality = "HIGH"
	QualityMedium      Quality = "MEDIUM"
	QualityLow         Quality = "LOW"
	QualityUnavailable Quality = "UNAVAILABLE"
)

// Usable reports whether the quality carries any signal at all.
func (q Quality) Usable() bool {
	switch q {
	case QualityHigh, QualityMedium, QualityLow:
		return true
	default:
		return false
	}
}

// InferenceSignal is what an Analyzer reports about a subject.
type InferenceSignal struct {
	Quality            Quality  `json:"quality"`
	DetectedAttributes []string `json:"detectedAttributes"`
	Error              string   `json:"error,omitempty"`
}

// Unavailable builds an UNAVAILABLE signal carrying the failure text.
func Unavailable(reason string) InferenceSignal {
	return InferenceSignal{Quality: QualityUnavailable, Error: reason}
}

// Analyzer is the external content/signal collaborator. Implementations must
// honour ctx, report ordinary failures as QualityUnavailable and never retry.
type Analyzer interface {
	Analyze(ctx context.Context, subjectReference string) (InferenceSignal, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, subjectReference string) (InferenceSignal, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, subjectReference string) (InferenceSignal, error) {
	return f(ctx, subjectReference)
}

// InferenceOutcome records what the adapter observed for one call.
type InferenceOutcome struct {
	Signal   InferenceSignal
	Fallback bool
	Reason   string
	Elapsed  time.Duration
}

// Label is the short outcome name used in metrics and logs.
func (o InferenceOutcome) Label() string {
	switch {
	case !o.Fallback:
		return strings.ToLower(string(o.Signal.Quality))
	case strings.HasPrefix(o.Reason, reasonTimeout):
		return "timeout"
	case o.Signal.Quality == QualityUnavailable && o.Signal.Error == "":
		return "skipped"
	default:
		return "unavailable"
	}
}

const reasonTimeout = "analysis timed out"

// InferenceAdapter wraps exactly one Analyzer call per scoring request.
type InferenceAdapter struct {
	rules    Rules
	analyzer Analyzer
	now      func() time.Time
}

func NewInferenceAdapter(rules Rules, analyzer Analyzer) *InferenceAdapter {
	return &InferenceAdapter{rules: rules, analyzer: analyzer, now: time.Now}
}

type analyzeResult struct {
	signal InferenceSignal
	err    error
}

// Run returns the website_signals component. Every collaborator failure becomes a
// fallback component; the only error is ErrScoringCancelled when ctx is cancelled.
func (a *InferenceAdapter) Run(ctx context.Context, subjectReference string) (ScoreComponent, InferenceOutcome, error) {
	if err := ctx.Err(); err != nil {
		return ScoreComponent{}, InferenceOutcome{}, ErrScoringCancelled
	}
	if a.analyzer == nil {
		return a.fallback(InferenceOutcome{Signal: InferenceSignal{Quality: QualityUnavailable}, Reason: "no analyzer configured"})
	}
	if strings.TrimSpace(subjectReference) == "" {
		return a.fallback(InferenceOutcome{Signal: InferenceSignal{Quality: QualityUnavailable}, Reason: "no subject reference supplied"})
	}

	start := a.now()
	tctx, cancel := context.WithTimeout(ctx, a.rules.InferenceTimeout)
	defer cancel()

	// Buffered so an abandoned collaborator can still finish and exit.
	done := make(chan analyzeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- analyzeResult{err: fmt.Errorf("analyzer panic: %v", r)}
			}
		}()
		signal, err := a.analyzer.Analyze(tctx, subjectReference)
		done <- analyzeResult{signal: signal, err: err}
	}()

	select {
	case res := <-done:
		elapsed := a.now().Sub(start)
		if ctx.Err() != nil {
			return ScoreComponent{}, InferenceOutcome{}, ErrScoringCancelled
		}
		return a.fromResult(res, elapsed)
	case <-tctx.Done():
		if ctx.Err() != nil {
			return ScoreComponent{}, InferenceOutcome{}, ErrScoringCancelled
		}
		return a.fallback(InferenceOutcome{
			Signal:  Unavailable(context.DeadlineExceeded.Error()),
			Reason:  fmt.Sprintf("%s after %s", reasonTimeout, a.rules.InferenceTimeout),
			Elapsed: a.now().Sub(start),
		})
	}
}

func (a *InferenceAdapter) fromResult(res analyzeResult, elapsed time.Duration) (ScoreComponent, InferenceOutcome, error) {
	if res.err != nil {
		reason := "analysis failed: " + res.err.Error()
		if errors.Is(res.err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("%s after %s", reasonTimeout, a.rules.InferenceTimeout)
		}
		return a.fallback(InferenceOutcome{Signal: Unavailable(res.err.Error()), Reason: reason, Elapsed: elapsed})
	}

	signal := res.signal
	signal.DetectedAttributes = dedupeSorted(signal.DetectedAttributes)
	if !signal.Quality.Usable() {
		reason := "analysis unavailable"
		if signal.Quality != QualityUnavailable {
			reason = fmt.Sprintf("unrecognized signal quality %q", signal.Quality)
		}
		if signal.Error != "" {
			reason += ": " + signal.Error
		}
		return a.fallback(InferenceOutcome{Signal: signal, Reason: reason, Elapsed: elapsed})
	}

	outcome := InferenceOutcome{Signal: signal, Elapsed: elapsed}
	return a.score(signal), outcome, nil
}

func (a *InferenceAdapter) score(signal InferenceSignal) ScoreComponent {
	r := a.rules.Inference
	var positive, negative []string
	sum := 0
	for _, attr := range signal.DetectedAttributes {
		w := r.AttributeWeights[attr]
		sum += w
		switch {
		case w > 0:
			positive = append(positive, attr)
		case w < 0:
			negative = append(negative, attr)
		}
	}
	pct := r.QualityPercent[string(signal.Quality)]
	points := clamp((r.Base+sum)*pct/100, 0, r.MaxPoints)

	sort.Strings(positive)
	sort.Strings(negative)
	explanation := fmt.Sprintf("%s-quality analysis: %d modern marker(s) [%s], %d legacy marker(s) [%s]",
		signal.Quality, len(positive), strings.Join(positive, ", "), len(negative), strings.Join(negative, ", "))
	return newComponent(a.rules, ComponentInference, points, explanation)
}

func (a *InferenceAdapter) fallback(outcome InferenceOutcome) (ScoreComponent, InferenceOutcome, error) {
	outcome.Fallback = true
	c := newComponent(a.rules, ComponentInference, 0, "website signals unavailable: "+outcome.Reason)
	c.Status = StatusFallback
	return c, outcome, nil
}
