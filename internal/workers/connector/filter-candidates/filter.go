package filtercandidates

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "connector-workers/internal/common/errors"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
	"connector-workers/internal/models"
)

const (
	verdictInvestor     = "investor"
	verdictEntrepreneur = "entrepreneur"
	verdictFailed       = "failed"
	verdictSkipped      = "skipped"
)

// Options bound the disambiguation work done for one request.
type Options struct {
	MaxCalls     int
	Concurrency  int
	RuleFallback bool
}

// Filter restricts a pool to the target role. Only investor searches
// disambiguate, and only entrepreneur-labelled candidates.
type Filter struct {
	primary Disambiguator
	rules   Disambiguator
	opts    Options
	logger  logger.Logger
}

// NewFilter builds a filter. A nil primary disables model calls; ambiguous
// candidates are then excluded unless RuleFallback is set.
func NewFilter(primary Disambiguator, opts Options, log logger.Logger) *Filter {
	if opts.MaxCalls < 0 {
		opts.MaxCalls = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Filter{
		primary: primary,
		rules:   RuleDisambiguator{},
		opts:    opts,
		logger:  log,
	}
}

// IsAmbiguous reports whether a candidate of role needs disambiguation for
// target.
func IsAmbiguous(target, role models.Role) bool {
	return target == models.RoleInvestor && role == models.RoleEntrepreneur
}

// Apply returns the candidates matching target in pool order. The
// requester never appears in the result and the pool is not modified.
func (f *Filter) Apply(ctx context.Context, requesterID string, target models.Role, pool []models.UserProfile) ([]models.Candidate, Stats) {
	var stats Stats
	slots := make([]*models.Candidate, len(pool))
	var ambiguous []int

	for i := range pool {
		p := pool[i]
		if requesterID != "" && p.ID == requesterID {
			continue
		}

		role, ok := models.ParseRole(string(p.Role))
		if !ok {
			continue
		}
		p.Role = role

		switch {
		case role == target:
			slots[i] = &models.Candidate{UserProfile: p}
			stats.Direct++
		case IsAmbiguous(target, role):
			ambiguous = append(ambiguous, i)
		}
	}

	stats.Ambiguous = len(ambiguous)
	if len(ambiguous) > 0 {
		verdicts := f.resolve(ctx, pool, ambiguous)
		for n, idx := range ambiguous {
			switch verdicts[n] {
			case verdictInvestor:
				relabelled := pool[idx]
				relabelled.Role = models.RoleInvestor
				slots[idx] = &models.Candidate{UserProfile: relabelled, AIDetected: true}
				stats.Detected++
			case verdictFailed:
				stats.Failed++
			case verdictSkipped:
				stats.Skipped++
			}
			metrics.Disambiguations.WithLabelValues(verdicts[n]).Inc()
		}
	}

	out := make([]models.Candidate, 0, stats.Direct+stats.Detected)
	for _, c := range slots {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, stats
}

// resolve issues at most MaxCalls model calls, Concurrency at a time. Each
// ambiguous candidate is classified at most once.
func (f *Filter) resolve(ctx context.Context, pool []models.UserProfile, ambiguous []int) []string {
	verdicts := make([]string, len(ambiguous))

	var g errgroup.Group
	g.SetLimit(f.opts.Concurrency)

	for n, idx := range ambiguous {
		if f.primary == nil || n >= f.opts.MaxCalls {
			verdicts[n] = f.withoutModel(ctx, pool[idx])
			continue
		}

		n, profile := n, pool[idx]
		g.Go(func() error {
			verdicts[n] = f.classify(ctx, profile)
			return nil
		})
	}

	_ = g.Wait()
	return verdicts
}

// classify asks the model about one candidate. Errors and panics from the
// model client are both treated as disambiguation failures.
func (f *Filter) classify(ctx context.Context, profile models.UserProfile) (verdict string) {
	defer func() {
		if r := recover(); r != nil {
			verdict = f.failed(ctx, profile, fmt.Errorf("disambiguation panicked: %v", r))
		}
	}()

	isInvestor, err := f.primary.IsInvestor(ctx, profile)
	if err != nil {
		return f.failed(ctx, profile, err)
	}
	return verdictFor(isInvestor)
}

func (f *Filter) failed(ctx context.Context, profile models.UserProfile, err error) string {
	stdErr := apperrors.NewDisambiguationFailedError(profile.ID, err)
	f.logger.Warn("disambiguation failed", map[string]interface{}{
		"candidateId":  profile.ID,
		"errorCode":    string(stdErr.Code),
		"error":        err.Error(),
		"ruleFallback": f.opts.RuleFallback,
	})
	if f.opts.RuleFallback {
		return f.ruleVerdict(ctx, profile)
	}
	return verdictFailed
}

func (f *Filter) withoutModel(ctx context.Context, profile models.UserProfile) string {
	if f.opts.RuleFallback {
		return f.ruleVerdict(ctx, profile)
	}
	return verdictSkipped
}

func (f *Filter) ruleVerdict(ctx context.Context, profile models.UserProfile) string {
	isInvestor, _ := f.rules.IsInvestor(ctx, profile)
	return verdictFor(isInvestor)
}

func verdictFor(isInvestor bool) string {
	if isInvestor {
		return verdictInvestor
	}
	return verdictEntrepreneur
}
