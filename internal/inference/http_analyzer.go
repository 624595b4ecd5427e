// internal/inference/http_analyzer.go
package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	httpclient "readiness-scorer/internal/common/http"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/readiness"
)

type analyzeRequest struct {
	Reference string `json:"reference"`
}

type analyzeResponse struct {
	Quality            string   `json:"quality"`
	DetectedAttributes []string `json:"detectedAttributes"`
	Error              string   `json:"error,omitempty"`
}

// HTTPAnalyzer delegates analysis to a remote service:
//
//	POST {baseURL}/analyze {"reference": "..."}
//	-> {"quality": "HIGH", "detectedAttributes": ["cloud_hosting"]}
type HTTPAnalyzer struct {
	client   *httpclient.Client
	endpoint string
	log      logger.Logger
}

func NewHTTPAnalyzer(client *httpclient.Client, baseURL string, log logger.Logger) *HTTPAnalyzer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &HTTPAnalyzer{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + "/analyze",
		log:      log,
	}
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, subjectReference string) (readiness.InferenceSignal, error) {
	var resp analyzeResponse
	err := a.client.PostJSON(ctx, a.endpoint, analyzeRequest{Reference: subjectReference}, &resp)
	if err != nil {
		if ctx.Err() != nil {
			return readiness.Unavailable(ctx.Err().Error()), ctx.Err()
		}
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			a.log.Warn("Analysis service rejected request", map[string]interface{}{
				"status":    statusErr.StatusCode,
				"reference": subjectReference,
			})
			return readiness.Unavailable(fmt.Sprintf("analysis service returned status %d", statusErr.StatusCode)), nil
		}
		a.log.Warn("Analysis service call failed", map[string]interface{}{
			"error":     err.Error(),
			"reference": subjectReference,
		})
		return readiness.Unavailable("analysis service call failed: " + err.Error()), nil
	}

	return readiness.InferenceSignal{
		Quality:            readiness.Quality(strings.ToUpper(strings.TrimSpace(resp.Quality))),
		DetectedAttributes: resp.DetectedAttributes,
		Error:              resp.Error,
	}, nil
}
