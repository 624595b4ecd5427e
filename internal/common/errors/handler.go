// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler handles job errors with standardized error handling
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError fails the job with a decremented retry count while the error
// code still allows retries, and throws the BPMN error once they are used up.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := h.normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	if remaining := RemainingRetries(job.Retries, bpmnErr.Retries); remaining > 0 {
		h.failJob(ctx, client, job, bpmnErr, remaining)
		return
	}
	h.throwBPMNError(ctx, client, job, bpmnErr)
}

// RemainingRetries is the retry count to hand back to the engine after one
// failed attempt: one less than the job has left, capped by the error code.
func RemainingRetries(jobRetries int32, maxRetries int) int {
	remaining := int(jobRetries) - 1
	if remaining > maxRetries {
		remaining = maxRetries
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	return FromScoringError(err)
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	var err error
	if vars, ok := h.errorVariables(job, bpmnErr); ok {
		withVars, verr := cmd.VariablesFromString(vars)
		if verr == nil {
			_, err = withVars.Send(ctx)
			h.logSendFailure(job, "fail job", bpmnErr, err)
			return
		}
	}
	_, err = cmd.Send(ctx)
	h.logSendFailure(job, "fail job", bpmnErr, err)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	var err error
	if vars, ok := h.errorVariables(job, bpmnErr); ok {
		withVars, verr := cmd.VariablesFromString(vars)
		if verr == nil {
			_, err = withVars.Send(ctx)
			h.logSendFailure(job, "throw error", bpmnErr, err)
			return
		}
	}
	_, err = cmd.Send(ctx)
	h.logSendFailure(job, "throw error", bpmnErr, err)
}

// errorVariables renders the BPMN error variables; false means send the command without them.
func (h *ErrorHandler) errorVariables(job entities.Job, bpmnErr *BPMNError) (string, bool) {
	vars := bpmnErr.ToErrorVariables()
	if len(vars) == 0 {
		return "", false
	}
	data, err := json.Marshal(vars)
	if err != nil {
		h.logger.Error("Failed to encode error variables", map[string]interface{}{
			"jobKey":        job.Key,
			"bpmnErrorCode": bpmnErr.Code,
			"error":         err.Error(),
		})
		return "", false
	}
	return string(data), true
}

func (h *ErrorHandler) logSendFailure(job entities.Job, command string, bpmnErr *BPMNError, err error) {
	if err == nil {
		return
	}
	h.logger.Error("Failed to "+command, map[string]interface{}{
		"jobKey":        job.Key,
		"jobType":       job.Type,
		"bpmnErrorCode": bpmnErr.Code,
		"error":         err.Error(),
	})
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          RemainingRetries(job.Retries, bpmnErr.Retries),
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
		"metadata":         stdErr.Metadata,
	})
}
