// internal/workers/assessment/check-readiness-score/handler.go
package checkreadinessscore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"readiness-scorer/internal/common/errors"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/common/metrics"
	"readiness-scorer/internal/common/observability"
	"readiness-scorer/internal/common/validation"
	"readiness-scorer/internal/readiness"
)

const TaskType = "check-readiness-score"

// Scorer is the part of *readiness.Scorer the worker needs.
type Scorer interface {
	Score(ctx context.Context, req readiness.Request) (*readiness.ReadinessScore, error)
	Rules() readiness.Rules
}

type Handler struct {
	config       *Config
	scorer       Scorer
	schema       validation.JSONSchema
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	newID        func() string
}

type HandlerOptions struct {
	Config        *Config
	Scorer        Scorer
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Scorer == nil {
		return nil, fmt.Errorf("check-readiness-score: scorer is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		scorer:       opts.Scorer,
		schema:       GetInputSchema(opts.Scorer.Rules().Vocabulary),
		errorHandler: errors.NewErrorHandler(log),
		obs:          opts.Observability,
		logger:       log,
		newID:        func() string { return uuid.New().String() },
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing readiness score request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.recordJob(ctx, startTime, "completed")
			return
		}
	}

	stdErr := errors.FromScoringError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.recordJob(ctx, startTime, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputInvalidError(readiness.ValidationErrors{
			{Field: "variables", Reason: err.Error()},
		})
	}
	return h.decodeInput(variables)
}

// decodeInput checks the variables against the schema and maps violations
// onto answer field names.
func (h *Handler) decodeInput(variables map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(variables, h.schema)
	if !result.Valid {
		ves := make(readiness.ValidationErrors, 0, len(result.Errors))
		for _, ve := range result.Errors {
			ves = append(ves, &readiness.ValidationError{
				Field:  strings.TrimPrefix(ve.Field, "answers."),
				Reason: ve.Message,
			})
		}
		return nil, errors.NewInputInvalidError(ves)
	}

	raw, err := json.Marshal(variables)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("encode variables: %w", err))
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputInvalidError(readiness.ValidationErrors{
			{Field: "answers", Reason: err.Error()},
		})
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := h.obs.StartSpan(ctx, "worker."+TaskType,
		attribute.String("subject.id", input.SubjectID))
	defer span.End()

	requestID := h.newID()
	log := h.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"subjectId": input.SubjectID,
	})

	score, err := h.scorer.Score(ctx, readiness.Request{
		SubjectID:        input.SubjectID,
		SubjectReference: input.SubjectReference,
		Input:            input.Answers,
	})
	if err != nil {
		// The scorer reports cancellation without the cause; keep it so a
		// job deadline is told apart from a shutdown.
		if ctxErr := ctx.Err(); ctxErr != nil && !stderrors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		span.RecordError(err)
		return nil, err
	}

	if h.obs != nil {
		h.obs.RecordScore(ctx, score.Band, string(score.Confidence))
	}
	log.Info("Readiness score ready", map[string]interface{}{
		"readinessScore": score.OverallScore,
		"band":           score.Band,
		"confidence":     score.Confidence,
	})
	return newOutput(requestID, score), nil
}

func (h *Handler) recordJob(ctx context.Context, start time.Time, status string) {
	if h.obs == nil {
		return
	}
	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, time.Since(start), status)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

// Execute runs the scoring step without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Decode exposes variable decoding for callers that already hold a map.
func (h *Handler) Decode(variables map[string]interface{}) (*Input, error) {
	return h.decodeInput(variables)
}
