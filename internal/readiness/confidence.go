// internal/readiness/confidence.go
package readiness

import (
	"fmt"
	"strings"
)

// SignalState summarizes which sources produced usable data for one call.
// New signal sources extend this struct rather than the assessor's callers.
type SignalState struct {
	InputComplete     bool
	DefaultedFields   []string
	InferenceQuality  Quality
	InferenceFallback bool
	InferenceReason   string
}

// SignalStateFor builds the assessor input from the normalizer and adapter results.
func SignalStateFor(in NormalizedInput, outcome InferenceOutcome) SignalState {
	return SignalState{
		InputComplete:     in.Complete(),
		DefaultedFields:   append([]string(nil), in.Defaulted...),
		InferenceQuality:  outcome.Signal.Quality,
		InferenceFallback: outcome.Fallback,
		InferenceReason:   outcome.Reason,
	}
}

// AssessConfidence maps a SignalState to HIGH, MEDIUM or LOW with a reason.
//
//	complete   + HIGH/MEDIUM inference -> HIGH
//	complete   + LOW/unavailable       -> MEDIUM
//	incomplete + HIGH/MEDIUM inference -> MEDIUM
//	incomplete + LOW/unavailable       -> LOW
func AssessConfidence(s SignalState) (Confidence, string) {
	strongInference := !s.InferenceFallback &&
		(s.InferenceQuality == QualityHigh || s.InferenceQuality == QualityMedium)

	var inputPart, inferencePart string
	if s.InputComplete {
		inputPart = "all answers supplied"
	} else {
		inputPart = fmt.Sprintf("defaulted answers for %s", strings.Join(s.DefaultedFields, ", "))
	}
	switch {
	case s.InferenceFallback:
		inferencePart = "website signals unavailable (" + s.InferenceReason + ")"
	case strongInference:
		inferencePart = fmt.Sprintf("%s-quality website signals", s.InferenceQuality)
	default:
		inferencePart = fmt.Sprintf("only %s-quality website signals", s.InferenceQuality)
	}
	reason := inputPart + "; " + inferencePart

	switch {
	case s.InputComplete && strongInference:
		return ConfidenceHigh, reason
	case s.InputComplete || strongInference:
		return ConfidenceMedium, reason
	default:
		return ConfidenceLow, reason
	}
}
