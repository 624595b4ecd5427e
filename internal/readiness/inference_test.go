// internal/readiness/inference_test.go
package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSignal(signal InferenceSignal) Analyzer {
	return AnalyzerFunc(func(ctx context.Context, ref string) (InferenceSignal, error) {
		return signal, nil
	})
}

func TestInferenceAdapter_ScoresUsableSignal(t *testing.T) {
	tests := []struct {
		name     string
		signal   InferenceSignal
		expected int
	}{
		{
			name: "high quality modern stack",
			signal: InferenceSignal{Quality: QualityHigh, DetectedAttributes: []string{
				"https", "cloud_hosting", "crm_integration", "analytics",
			}},
			expected: 13, // (4 + 1 + 3 + 3 + 2) * 100%
		},
		{
			name: "medium quality scaled",
			signal: InferenceSignal{Quality: QualityMedium, DetectedAttributes: []string{
				"https", "cloud_hosting", "crm_integration", "analytics",
			}},
			expected: 9, // 13 * 75 / 100
		},
		{
			name: "capped at max",
			signal: InferenceSignal{Quality: QualityHigh, DetectedAttributes: []string{
				"https", "cloud_hosting", "crm_integration", "api_documentation", "analytics", "chat_widget",
			}},
			expected: 15,
		},
		{
			name:     "legacy markers floor at zero",
			signal:   InferenceSignal{Quality: QualityLow, DetectedAttributes: []string{"flash_content", "legacy_cms", "no_https"}},
			expected: 0,
		},
		{
			name:     "unknown attributes ignored",
			signal:   InferenceSignal{Quality: QualityHigh, DetectedAttributes: []string{"blink_tag"}},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewInferenceAdapter(DefaultRules(), fixedSignal(tt.signal))

			c, outcome, err := a.Run(context.Background(), "https://example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.Points)
			assert.Equal(t, StatusScored, c.Status)
			assert.False(t, outcome.Fallback)
			assert.Equal(t, tt.signal.Quality, outcome.Signal.Quality)
		})
	}
}

func TestInferenceAdapter_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		analyzer Analyzer
		ref      string
		reason   string
		label    string
	}{
		{
			name:     "unavailable signal",
			analyzer: fixedSignal(Unavailable("rate limited")),
			ref:      "https://example.com",
			reason:   "rate limited",
			label:    "unavailable",
		},
		{
			name: "collaborator error",
			analyzer: AnalyzerFunc(func(ctx context.Context, ref string) (InferenceSignal, error) {
				return InferenceSignal{}, errors.New("connection refused")
			}),
			ref:    "https://example.com",
			reason: "connection refused",
			label:  "unavailable",
		},
		{
			name: "collaborator panic",
			analyzer: AnalyzerFunc(func(ctx context.Context, ref string) (InferenceSignal, error) {
				panic("boom")
			}),
			ref:    "https://example.com",
			reason: "analyzer panic: boom",
			label:  "unavailable",
		},
		{
			name:     "unrecognized quality",
			analyzer: fixedSignal(InferenceSignal{Quality: "EXCELLENT"}),
			ref:      "https://example.com",
			reason:   `unrecognized signal quality "EXCELLENT"`,
			label:    "unavailable",
		},
		{
			name:     "no subject reference",
			analyzer: fixedSignal(InferenceSignal{Quality: QualityHigh}),
			ref:      "  ",
			reason:   "no subject reference supplied",
			label:    "skipped",
		},
		{
			name:     "no analyzer",
			analyzer: nil,
			ref:      "https://example.com",
			reason:   "no analyzer configured",
			label:    "skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewInferenceAdapter(DefaultRules(), tt.analyzer)

			c, outcome, err := a.Run(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, 0, c.Points)
			assert.Equal(t, 15, c.MaxPoints)
			assert.True(t, c.Fallback())
			assert.True(t, outcome.Fallback)
			assert.Contains(t, outcome.Reason, tt.reason)
			assert.Contains(t, c.Explanation, "unavailable")
			assert.Equal(t, tt.label, outcome.Label())
		})
	}
}

func TestInferenceAdapter_TimeoutAbandonsCollaborator(t *testing.T) {
	rules := DefaultRules()
	rules.InferenceTimeout = 20 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	stuck := AnalyzerFunc(func(ctx context.Context, ref string) (InferenceSignal, error) {
		<-release // ignores ctx on purpose
		return InferenceSignal{Quality: QualityHigh}, nil
	})

	a := NewInferenceAdapter(rules, stuck)
	start := time.Now()
	c, outcome, err := a.Run(context.Background(), "https://slow.example.com")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, c.Fallback())
	assert.Equal(t, 0, c.Points)
	assert.Equal(t, "timeout", outcome.Label())
}

func TestInferenceAdapter_CollaboratorSeesDeadline(t *testing.T) {
	rules := DefaultRules()
	rules.InferenceTimeout = 20 * time.Millisecond

	polite := AnalyzerFunc(func(ctx context.Context, ref string) (InferenceSignal, error) {
		_, ok := ctx.Deadline()
		if !ok {
			return InferenceSignal{}, errors.New("missing deadline")
		}
		<-ctx.Done()
		return InferenceSignal{}, ctx.Err()
	})

	c, outcome, err := NewInferenceAdapter(rules, polite).Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.True(t, c.Fallback())
	assert.Equal(t, "timeout", outcome.Label())
}

func TestInferenceAdapter_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	analyzer := AnalyzerFunc(func(actx context.Context, ref string) (InferenceSignal, error) {
		close(started)
		<-actx.Done()
		return InferenceSignal{}, actx.Err()
	})

	go func() {
		<-started
		cancel()
	}()

	_, _, err := NewInferenceAdapter(DefaultRules(), analyzer).Run(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrScoringCancelled)
}

func TestInferenceAdapter_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	analyzer := AnalyzerFunc(func(ctx context.Context, ref string) (InferenceSignal, error) {
		called = true
		return InferenceSignal{Quality: QualityHigh}, nil
	})

	_, _, err := NewInferenceAdapter(DefaultRules(), analyzer).Run(ctx, "https://example.com")
	assert.ErrorIs(t, err, ErrScoringCancelled)
	assert.False(t, called)
}
