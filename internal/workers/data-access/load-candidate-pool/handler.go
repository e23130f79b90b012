package loadcandidatepool

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	"connector-workers/internal/common/config"
	apperrors "connector-workers/internal/common/errors"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
	"connector-workers/internal/models"
	"connector-workers/internal/workers/data-access/load-candidate-pool/queries"
)

const (
	TaskType = "load-candidate-pool"
)

var (
	ErrCandidateQueryFailed  = errors.New("CANDIDATE_QUERY_FAILED")
	ErrCandidateSearchFailed = errors.New("CANDIDATE_SEARCH_FAILED")
	ErrQueryTimeout          = errors.New("QUERY_TIMEOUT")
	ErrUnsupportedPoolSource = errors.New("UNSUPPORTED_POOL_SOURCE")
)

type Handler struct {
	config  *Config
	sources queries.Sources
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

// NewHandler accepts a nil db or es client; jobs asking for the missing
// source fail with UNSUPPORTED_POOL_SOURCE.
func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config: config,
		sources: queries.Sources{
			DB:           db,
			ES:           es,
			ProfileIndex: config.ProfileIndex,
		},
		errors: apperrors.NewErrorHandler(log),
		logger: log,
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
		h.failJob(client, job, toStandardError(err, h.source(&input)))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	source := h.source(input)
	target := models.NormalizeTarget(input.TargetType)
	q := queries.PoolQuery{
		RequesterID: strings.TrimSpace(input.RequesterID),
		Roles:       RolesFor(target),
		Limit:       h.limit(input),
	}

	result, err := queries.Execute(ctx, h.sources, source, q)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", ErrQueryTimeout, source)
		}
		if errors.Is(err, queries.ErrUnknownSource) || errors.Is(err, queries.ErrSourceUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPoolSource, err)
		}
		if source == config.PoolSourceElasticsearch {
			return nil, fmt.Errorf("%w: %v", ErrCandidateSearchFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCandidateQueryFailed, err)
	}

	h.logger.Debug("candidate pool loaded", map[string]interface{}{
		"source":     source,
		"targetType": string(target),
		"roles":      q.Roles,
		"count":      len(result.Profiles),
		"tookMs":     result.Took,
	})

	return &Output{
		CandidatePool:      result.Profiles,
		Count:              len(result.Profiles),
		Source:             source,
		QueryExecutionTime: result.Took,
	}, nil
}

func (h *Handler) source(input *Input) string {
	if s := strings.ToLower(strings.TrimSpace(input.Source)); s != "" {
		return s
	}
	return h.config.Source
}

func (h *Handler) limit(input *Input) int {
	limit := h.config.Limit
	if input.Limit > 0 {
		limit = input.Limit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

// RolesFor lists the stored user_type values to load for target. Investor
// searches also load entrepreneurs so mislabelled investors can be
// disambiguated downstream.
func RolesFor(target models.Role) []string {
	roles := models.SynonymsFor(target)
	if target == models.RoleInvestor {
		roles = append(roles, models.SynonymsFor(models.RoleEntrepreneur)...)
	}
	return roles
}

func toStandardError(err error, source string) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(source)
	case errors.Is(err, ErrUnsupportedPoolSource):
		return apperrors.NewUnsupportedPoolSourceError(source)
	case errors.Is(err, ErrCandidateSearchFailed):
		return apperrors.NewCandidateSearchFailedError(err)
	case errors.Is(err, ErrCandidateQueryFailed):
		return apperrors.NewCandidateQueryFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
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
