package calculatecompatibilityscore

import (
	"fmt"
	"sort"
	"strings"

	"connector-workers/internal/models"
)

// Weights are hand-tuned; components may sum past MaxScore before capping.
const (
	RoleMatchPoints = 35

	IndustrySearchedPoints = 30
	IndustrySimilarPoints  = 20
	IndustrySamePoints     = 25

	StageExactPoints    = 15
	StageAdjacentPoints = 10
	StageSamePoints     = 12

	LocationSearchedPoints = 10
	LocationCountryPoints  = 8

	KeywordPoints = 3
	KeywordCap    = 10

	LookingForPoints = 10

	MaxScore = 100

	EntrepreneurThreshold = 40
	DefaultThreshold      = 35

	MaxExposedMatches = 5
)

const defaultStageOrdinal = 2

var stageOrdinals = map[string]int{
	"idea":     0,
	"mvp":      1,
	"seed":     2,
	"pre-seed": 2,
	"series_a": 3,
	"series a": 3,
	"series_b": 4,
	"series b": 4,
	"growth":   5,
	"scale":    6,
}

// StageOrdinal ranks a maturity stage; unknown stages rank as seed.
func StageOrdinal(stage string) int {
	if v, ok := stageOrdinals[strings.ToLower(strings.TrimSpace(stage))]; ok {
		return v
	}
	return defaultStageOrdinal
}

// Threshold is the minimum score a candidate needs to be kept.
func Threshold(target models.Role) int {
	if target == models.RoleEntrepreneur {
		return EntrepreneurThreshold
	}
	return DefaultThreshold
}

// Score is the uncapped-then-capped compatibility of candidate for requester
// under criteria, with one reason per component that scored. It does no I/O
// and is deterministic.
func Score(candidate models.Candidate, requester models.UserProfile, criteria models.SearchCriteria) (int, []string) {
	score := RoleMatchPoints
	reasons := []string{"✓ Es " + strings.ToLower(candidate.Role.Label())}

	points, reason := industryComponent(candidate.Industry, criteria.Industry, requester.Industry)
	score += points
	reasons = appendReason(reasons, reason)

	points, reason = stageComponent(candidate.Stage, criteria.Stage, requester.Stage)
	score += points
	reasons = appendReason(reasons, reason)

	points, reason = locationComponent(candidate.Country, criteria.Location, requester.Country)
	score += points
	reasons = appendReason(reasons, reason)

	points, reason = keywordComponent(candidate, criteria.Keywords)
	score += points
	reasons = appendReason(reasons, reason)

	points, reason = lookingForComponent(candidate.CanOffer, criteria.LookingFor, requester.LookingFor)
	score += points
	reasons = appendReason(reasons, reason)

	if score > MaxScore {
		score = MaxScore
	}
	return score, reasons
}

func appendReason(reasons []string, reason string) []string {
	if reason == "" {
		return reasons
	}
	return append(reasons, reason)
}

// overlaps reports a non-empty bidirectional substring match.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func industryComponent(candidate, searched, own string) (int, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return 0, ""
	}
	s := strings.ToLower(strings.TrimSpace(searched))
	o := strings.ToLower(strings.TrimSpace(own))

	if s != "" {
		switch {
		case overlaps(s, c):
			return IndustrySearchedPoints, "🎯 Industria: " + candidate
		case overlaps(o, c):
			return IndustrySimilarPoints, "📊 Similar industria: " + candidate
		}
		return 0, ""
	}
	if overlaps(o, c) {
		return IndustrySamePoints, "📊 Misma industria: " + candidate
	}
	return 0, ""
}

func stageComponent(candidate, searched, own string) (int, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return 0, ""
	}
	s := strings.ToLower(strings.TrimSpace(searched))

	if s != "" {
		if s == c {
			return StageExactPoints, "🚀 Etapa: " + candidate
		}
		if diff := StageOrdinal(s) - StageOrdinal(c); diff >= -1 && diff <= 1 {
			return StageAdjacentPoints, "📈 Etapa similar: " + candidate
		}
		return 0, ""
	}
	if o := strings.ToLower(strings.TrimSpace(own)); o != "" && o == c {
		return StageSamePoints, "🚀 Misma etapa: " + candidate
	}
	return 0, ""
}

func locationComponent(candidate, searched, own string) (int, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return 0, ""
	}
	s := strings.ToLower(strings.TrimSpace(searched))

	if s != "" {
		if overlaps(s, c) {
			return LocationSearchedPoints, "🌍 Ubicación: " + candidate
		}
		return 0, ""
	}
	if o := strings.ToLower(strings.TrimSpace(own)); o != "" && o == c {
		return LocationCountryPoints, "📍 Mismo país: " + candidate
	}
	return 0, ""
}

func keywordComponent(candidate models.Candidate, keywords []string) (int, string) {
	if len(keywords) == 0 {
		return 0, ""
	}

	name := candidate.Name
	if name == "" {
		name = "Usuario"
	}
	text := strings.ToLower(strings.Join([]string{
		name, candidate.Industry, candidate.Stage, candidate.Bio, candidate.Interests.Text(),
	}, " "))

	var matched []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return 0, ""
	}

	points := KeywordPoints * len(matched)
	if points > KeywordCap {
		points = KeywordCap
	}
	shown := matched
	if len(shown) > 3 {
		shown = shown[:3]
	}
	return points, "🔍 Keywords: " + strings.Join(shown, ", ")
}

// lookingForComponent uses the searched intent, or the requester's own
// lookingFor values when the message carried none.
func lookingForComponent(canOffer models.StringList, searched string, own models.StringList) (int, string) {
	offer := strings.ToLower(canOffer.Text())
	if offer == "" {
		return 0, ""
	}

	wants := []string{searched}
	if strings.TrimSpace(searched) == "" {
		wants = own
	}
	for _, want := range wants {
		w := strings.ToLower(strings.TrimSpace(want))
		if w != "" && strings.Contains(offer, w) {
			return LookingForPoints, "💡 Puede ofrecer: " + strings.TrimSpace(want)
		}
	}
	return 0, ""
}

// Rank scores every candidate, drops those under the target's threshold and
// sorts by score descending. Ties keep pool order.
func Rank(candidates []models.Candidate, requester models.UserProfile, criteria models.SearchCriteria) []models.MatchResult {
	threshold := Threshold(criteria.TargetType)

	matches := make([]models.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		score, reasons := Score(c, requester, criteria)
		if score < threshold {
			continue
		}
		matches = append(matches, NewMatchResult(c, score, reasons))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func NewMatchResult(c models.Candidate, score int, reasons []string) models.MatchResult {
	name := c.Name
	if name == "" {
		name = "Usuario"
	}
	return models.MatchResult{
		CandidateID:          c.ID,
		Name:                 name,
		Score:                score,
		ReasonComponents:     reasons,
		Reason:               models.JoinReasons(reasons),
		Role:                 c.Role,
		RoleLabel:            c.Role.Label(),
		Industry:             c.Industry,
		Stage:                c.Stage,
		Country:              c.Country,
		AIDetected:           c.AIDetected,
		ConversationStarters: []string{},
	}
}

// Top returns at most n matches.
func Top(matches []models.MatchResult, n int) []models.MatchResult {
	if n <= 0 || len(matches) <= n {
		return matches
	}
	return matches[:n]
}

func describe(m models.MatchResult) string {
	return fmt.Sprintf("%s:%d", m.CandidateID, m.Score)
}
