package suggestconnections

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "connector-workers/internal/common/errors"
	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
	"connector-workers/internal/common/validation"
	filtercandidates "connector-workers/internal/workers/connector/filter-candidates"
)

const (
	TaskType = "suggest-connections"
)

type Handler struct {
	config    *Config
	suggester *Suggester
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the worker. completer may be nil, in which case
// ambiguous candidates are resolved by the configured fallback only.
func NewHandler(config *Config, completer llm.Completer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		suggester: NewSuggester(filtercandidates.NewFilterFromConfig(config.Filter, completer, log)),
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if result := validation.Struct(input); !result.Valid {
		return nil, apperrors.NewInvalidInputError(result.Error())
	}

	limit := input.Limit
	if limit <= 0 || limit > h.config.MaxSuggestions {
		limit = h.config.MaxSuggestions
	}

	targets := Targets(input.UserProfile.Role)
	suggestions, stats := h.suggester.Suggest(ctx, input.UserProfile, input.CandidatePool, limit)

	h.logger.Info("connections suggested", map[string]interface{}{
		"requesterId": input.UserProfile.ID,
		"role":        string(input.UserProfile.Role),
		"poolSize":    len(input.CandidatePool),
		"targets":     len(targets),
		"returned":    len(suggestions),
		"aiDetected":  stats.Detected,
	})
	metrics.MatchesReturned.Observe(float64(len(suggestions)))

	return &Output{
		Suggestions: suggestions,
		Count:       len(suggestions),
		Targets:     targets,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
