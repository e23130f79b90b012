package processchatturn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"connector-workers/internal/common/config"
	apperrors "connector-workers/internal/common/errors"
	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
	"connector-workers/internal/common/observability"
	"connector-workers/internal/common/session"
	"connector-workers/internal/common/validation"
	"connector-workers/internal/models"
	scoring "connector-workers/internal/workers/connector/calculate-compatibility-score"
	extractsearchcriteria "connector-workers/internal/workers/connector/extract-search-criteria"
	filtercandidates "connector-workers/internal/workers/connector/filter-candidates"
	starters "connector-workers/internal/workers/connector/generate-conversation-starters"
)

// Dependencies are the collaborators shared with the rest of the process.
type Dependencies struct {
	Store         session.Repository
	CallSites     llm.CallSites
	Observability *observability.Observability
	Logger        logger.Logger
}

// Assembler runs one chat turn end to end against the session store.
type Assembler struct {
	config    *Config
	store     session.Repository
	locker    *session.Locker
	extractor *extractsearchcriteria.Extractor
	filter    *filtercandidates.Filter
	obs       *observability.Observability
	now       func() time.Time
	logger    logger.Logger
}

func NewAssembler(cfg *Config, deps Dependencies) *Assembler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var primary extractsearchcriteria.Classifier
	if deps.CallSites.Extraction != nil {
		primary = extractsearchcriteria.NewRemoteClassifier(deps.CallSites.Extraction, cfg.Extraction, log)
	}

	a := &Assembler{
		config:    cfg,
		store:     deps.Store,
		extractor: extractsearchcriteria.NewExtractor(primary, log),
		filter:    filtercandidates.NewFilterFromConfig(cfg.Filter, deps.CallSites.Disambiguation, log),
		obs:       deps.Observability,
		now:       time.Now,
		logger:    log,
	}
	if cfg.SerializeTurns {
		a.locker = session.NewLocker()
	}
	return a
}

// Turn processes one inbound message. It never fails: any error or panic
// becomes a fallback reply.
func (a *Assembler) Turn(ctx context.Context, input *Input) (out *Output) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	log := a.logger.WithFields(map[string]interface{}{"sessionId": sessionID})

	var matches []models.MatchResult
	defer func() {
		if r := recover(); r != nil {
			log.Error("chat turn panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			out = fallbackOutput(sessionID, matches)
			metrics.TurnsTotal.WithLabelValues(outcomeFallback).Inc()
		}
	}()

	if result := validation.Struct(input); !result.Valid {
		stdErr := apperrors.NewInvalidChatRequestError(result.Error())
		log.Warn("invalid chat request", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		metrics.TurnsTotal.WithLabelValues(outcomeInvalid).Inc()
		return fallbackOutput(sessionID, nil)
	}

	out, err := a.run(ctx, sessionID, input, &matches, log)
	if err != nil {
		log.Error("chat turn failed", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.TurnsTotal.WithLabelValues(outcomeFallback).Inc()
		return fallbackOutput(sessionID, matches)
	}

	outcome := outcomeNoMatches
	if out.HasMatches {
		outcome = outcomeMatches
	}
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	metrics.MatchesReturned.Observe(float64(len(out.Matches)))
	return out
}

func (a *Assembler) run(ctx context.Context, sessionID string, input *Input, matches *[]models.MatchResult, log logger.Logger) (*Output, error) {
	ctx, endTurn := a.obs.StartStage(ctx, "chat.turn", attribute.String("session.id", sessionID))
	defer endTurn()

	if a.locker != nil {
		unlock, err := a.locker.Lock(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("wait for session lock: %w", err)
		}
		defer unlock()
	}

	sess, persist := a.load(ctx, sessionID, log)

	if input.UserProfile != nil {
		if sess.UserContext == nil {
			sess.UserContext = &models.UserProfile{}
		}
		sess.UserContext.MergeFrom(input.UserProfile)
	}
	sess.AppendMessage(models.MessageRoleUser, input.UserMessage, a.now())

	stageCtx, end := a.obs.StartStage(ctx, "chat.extract")
	criteria, source := a.extractor.Extract(stageCtx, input.UserMessage)
	end()
	sess.SearchPreferences = a.applyPreferences(sess.SearchPreferences, criteria)

	requester := models.UserProfile{}
	if sess.UserContext != nil {
		requester = *sess.UserContext
	}

	stageCtx, end = a.obs.StartStage(ctx, "chat.filter",
		attribute.String("target.type", string(criteria.TargetType)),
		attribute.Int("pool.size", len(input.CandidatePool)),
	)
	candidates, stats := a.filter.Apply(stageCtx, requester.ID, criteria.TargetType, input.CandidatePool)
	end()

	var ranked []models.MatchResult
	if len(candidates) > 0 {
		_, end = a.obs.StartStage(ctx, "chat.score")
		ranked = scoring.Rank(candidates, requester, criteria)
		end()
	}

	top := starters.Attach(scoring.Top(ranked, a.config.MaxMatches), criteria)
	*matches = top

	message := ComposeMessage(criteria, top, len(ranked))
	sess.AppendMessage(models.MessageRoleAssistant, message, a.now())
	sess.SuggestedConnections = top

	if persist {
		if err := a.save(ctx, sess); err != nil {
			stdErr := apperrors.NewSessionStoreUnavailableError(err)
			log.Error("failed to save session", map[string]interface{}{
				"errorCode": string(stdErr.Code),
				"error":     err.Error(),
			})
		}
	}

	log.Info("chat turn processed", map[string]interface{}{
		"criteriaSource": source,
		"targetType":     string(criteria.TargetType),
		"poolSize":       len(input.CandidatePool),
		"filtered":       len(candidates),
		"aiDetected":     stats.Detected,
		"qualified":      len(ranked),
		"returned":       len(top),
		"historyLength":  len(sess.History),
	})

	return &Output{
		Message:    message,
		Matches:    top,
		SessionID:  sessionID,
		HasMatches: len(top) > 0,
	}, nil
}

// load returns the stored session. When the store is unreachable the turn
// continues on a transient session that is not saved.
func (a *Assembler) load(ctx context.Context, sessionID string, log logger.Logger) (*models.Session, bool) {
	if a.store == nil {
		return models.NewSession(sessionID, a.now()), false
	}

	ctx, end := a.obs.StartStage(ctx, "chat.session")
	defer end()

	sess, created, err := a.store.CreateIfAbsent(ctx, sessionID)
	if err != nil {
		stdErr := apperrors.NewSessionStoreUnavailableError(err)
		log.Error("session store unavailable, continuing without memory", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		return models.NewSession(sessionID, a.now()), false
	}
	if created {
		log.Debug("session created", nil)
	}
	return sess, true
}

// save writes the session on its own StoreTimeout budget, detached from the
// turn deadline.
func (a *Assembler) save(ctx context.Context, sess *models.Session) error {
	timeout := a.config.StoreTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return a.store.Update(ctx, sess)
}

// applyPreferences stores the turn's criteria according to the configured
// policy. Matching always uses the fresh criteria.
func (a *Assembler) applyPreferences(current *models.SearchCriteria, fresh models.SearchCriteria) *models.SearchCriteria {
	if current == nil || a.config.PreferencesPolicy != config.PreferencesMerge {
		c := fresh
		c.Keywords = append([]string{}, fresh.Keywords...)
		return &c
	}
	merged := current.Merge(fresh)
	return &merged
}

func fallbackOutput(sessionID string, matches []models.MatchResult) *Output {
	if matches == nil {
		matches = []models.MatchResult{}
	}
	return &Output{
		Message:    FallbackMessage(len(matches)),
		Matches:    matches,
		SessionID:  sessionID,
		HasMatches: len(matches) > 0,
	}
}
