package filtercandidates

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/models"
)

// Disambiguator decides whether a profile labelled as an entrepreneur is
// actually an investor.
type Disambiguator interface {
	IsInvestor(ctx context.Context, profile models.UserProfile) (bool, error)
}

const disambiguationPrompt = `Analyze this user profile and determine if they are an INVESTOR or ENTREPRENEUR/FOUNDER.

User Profile:
- Name: %s
- Company: %s
- Bio: %s
- Interests: %s
- Looking for: %s
- Stage: %s

Rules:
1. If name/company contains words like: VC, Ventures, Capital, Investment, Fund, Angel → INVESTOR
2. If bio/interests mention: investing, funding, capital, portfolio → INVESTOR
3. If they are looking for "investment opportunities" or "startups to fund" → INVESTOR
4. Otherwise → ENTREPRENEUR

Respond with ONLY one word: INVESTOR or ENTREPRENEUR`

// RemoteDisambiguator asks the completion service for a one-word verdict.
type RemoteDisambiguator struct {
	completer llm.Completer
	logger    logger.Logger
}

func NewRemoteDisambiguator(completer llm.Completer, log logger.Logger) *RemoteDisambiguator {
	return &RemoteDisambiguator{completer: completer, logger: log}
}

func (d *RemoteDisambiguator) IsInvestor(ctx context.Context, profile models.UserProfile) (bool, error) {
	reply, err := d.completer.Complete(ctx, llm.Request{
		Prompt:      BuildPrompt(profile),
		Temperature: 0,
		MaxTokens:   10,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDisambiguationFailed, err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(reply))
	d.logger.Debug("disambiguation verdict", map[string]interface{}{
		"candidateId": profile.ID,
		"reply":       logger.Truncate(verdict, 32),
	})
	return strings.Contains(verdict, "INVESTOR"), nil
}

// BuildPrompt renders the classification prompt for one profile. The
// industry field stands in for the company.
func BuildPrompt(p models.UserProfile) string {
	return fmt.Sprintf(disambiguationPrompt,
		p.Name,
		p.Industry,
		p.Bio,
		strings.Join(p.Interests, ", "),
		strings.Join(p.LookingFor, ", "),
		p.Stage,
	)
}

var (
	investorNameWords    = []string{"ventures", "capital", "investment", "fund", "angel"}
	investorBioWords     = []string{"investing", "funding", "capital", "portfolio"}
	investorLookingWords = []string{"investment opportunities", "startups to fund"}
)

// RuleDisambiguator applies the prompt's rules locally.
type RuleDisambiguator struct{}

func (RuleDisambiguator) IsInvestor(_ context.Context, p models.UserProfile) (bool, error) {
	return LooksLikeInvestor(p), nil
}

func LooksLikeInvestor(p models.UserProfile) bool {
	nameCompany := strings.ToLower(p.Name + " " + p.Industry)
	for _, token := range strings.FieldsFunc(nameCompany, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if token == "vc" {
			return true
		}
	}
	if containsAny(nameCompany, investorNameWords) {
		return true
	}

	bio := strings.ToLower(p.Bio + " " + p.Interests.Text())
	if containsAny(bio, investorBioWords) {
		return true
	}

	return containsAny(strings.ToLower(p.LookingFor.Text()), investorLookingWords)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
