package extractsearchcriteria

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
)

const (
	TaskType = "extract-search-criteria"
)

var (
	ErrCriteriaExtractionFailed = errors.New("CRITERIA_EXTRACTION_FAILED")
)

type Handler struct {
	config    *Config
	extractor *Extractor
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the worker. With a nil completer the keyword rules are
// the only extraction path.
func NewHandler(config *Config, completer llm.Completer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{
		"taskType": TaskType,
	})

	var primary Classifier
	if completer != nil {
		primary = NewRemoteClassifier(completer, config, log)
	}

	return &Handler{
		config:    config,
		extractor: NewExtractor(primary, log),
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
	criteria, source := h.extractor.Extract(ctx, input.Message)

	h.logger.Info("criteria extracted", map[string]interface{}{
		"source":     source,
		"targetType": string(criteria.TargetType),
		"industry":   criteria.Industry,
		"stage":      criteria.Stage,
		"keywords":   len(criteria.Keywords),
	})

	return &Output{Criteria: criteria, Source: source}, nil
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
