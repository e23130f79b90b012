package suggestconnections

import (
	"context"
	"sort"
	"strings"

	"connector-workers/internal/models"
	scoring "connector-workers/internal/workers/connector/calculate-compatibility-score"
	filtercandidates "connector-workers/internal/workers/connector/filter-candidates"
	starters "connector-workers/internal/workers/connector/generate-conversation-starters"
)

const DefaultMaxSuggestions = 6

// Targets lists the roles suggested to a requester of role. Founders see
// investors and validators, investors see founders, everyone else nothing.
func Targets(role models.Role) []models.Role {
	switch role {
	case models.RoleEntrepreneur:
		return []models.Role{models.RoleInvestor, models.RoleValidator}
	case models.RoleInvestor:
		return []models.Role{models.RoleEntrepreneur}
	default:
		return []models.Role{}
	}
}

// InIndustry reports whether a candidate's industry fits the requester's.
// Founders also get candidates with no industry on file. A requester with no
// industry matches everyone.
func InIndustry(requesterRole models.Role, requesterIndustry, candidateIndustry string) bool {
	want := strings.ToLower(strings.TrimSpace(requesterIndustry))
	if want == "" {
		return true
	}
	have := strings.ToLower(strings.TrimSpace(candidateIndustry))
	if have == "" {
		return requesterRole == models.RoleEntrepreneur
	}
	return strings.Contains(have, want)
}

// Suggester builds a connection list from a profile alone, with no message.
type Suggester struct {
	filter *filtercandidates.Filter
}

func NewSuggester(filter *filtercandidates.Filter) *Suggester {
	return &Suggester{filter: filter}
}

// Suggest scores every industry-compatible candidate of each target role and
// returns the best limit of them. Unlike a chat turn no score threshold
// applies. A candidate reachable through two targets is listed once.
func (s *Suggester) Suggest(ctx context.Context, requester models.UserProfile, pool []models.UserProfile, limit int) ([]models.MatchResult, filtercandidates.Stats) {
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}

	var total filtercandidates.Stats
	var all []models.MatchResult
	for _, target := range Targets(requester.Role) {
		criteria := models.SearchCriteria{TargetType: target, Industry: requester.Industry}
		criteria.Normalize()

		candidates, stats := s.filter.Apply(ctx, requester.ID, target, pool)
		total = addStats(total, stats)

		for _, c := range candidates {
			if !InIndustry(requester.Role, requester.Industry, c.Industry) {
				continue
			}
			score, reasons := scoring.Score(c, requester, criteria)
			all = append(all, scoring.NewMatchResult(c, score, reasons))
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	seen := make(map[string]bool, len(all))
	out := make([]models.MatchResult, 0, limit)
	for _, m := range all {
		if len(out) == limit {
			break
		}
		if seen[m.CandidateID] {
			continue
		}
		seen[m.CandidateID] = true
		out = append(out, m)
	}

	return starters.Attach(out, models.SearchCriteria{Industry: requester.Industry}), total
}

func addStats(a, b filtercandidates.Stats) filtercandidates.Stats {
	return filtercandidates.Stats{
		Direct:    a.Direct + b.Direct,
		Ambiguous: a.Ambiguous + b.Ambiguous,
		Detected:  a.Detected + b.Detected,
		Failed:    a.Failed + b.Failed,
		Skipped:   a.Skipped + b.Skipped,
	}
}
