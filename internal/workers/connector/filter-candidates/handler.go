package filtercandidates

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "connector-workers/internal/common/errors"
	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
	"connector-workers/internal/models"
)

const (
	TaskType = "filter-candidates"
)

var (
	ErrDisambiguationFailed = errors.New("DISAMBIGUATION_FAILED")
)

type Handler struct {
	config *Config
	filter *Filter
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, completer llm.Completer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{
		"taskType": TaskType,
	})

	return &Handler{
		config: config,
		filter: NewFilterFromConfig(config, completer, log),
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

// NewFilterFromConfig wires the model-backed disambiguator when enabled and
// a completer is available.
func NewFilterFromConfig(config *Config, completer llm.Completer, log logger.Logger) *Filter {
	var primary Disambiguator
	if config.DisambiguationEnabled && completer != nil {
		primary = NewRemoteDisambiguator(completer, log)
	}
	return NewFilter(primary, Options{
		MaxCalls:     config.MaxCalls,
		Concurrency:  config.Concurrency,
		RuleFallback: config.RuleFallback,
	}, log)
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
	target := models.NormalizeTarget(input.TargetType)
	candidates, stats := h.filter.Apply(ctx, input.RequesterID, target, input.CandidatePool)

	h.logger.Info("candidates filtered", map[string]interface{}{
		"targetType": string(target),
		"poolSize":   len(input.CandidatePool),
		"kept":       len(candidates),
		"direct":     stats.Direct,
		"ambiguous":  stats.Ambiguous,
		"detected":   stats.Detected,
		"failed":     stats.Failed,
		"skipped":    stats.Skipped,
	})

	return &Output{
		Candidates: candidates,
		Count:      len(candidates),
		TargetType: target,
		Stats:      stats,
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
