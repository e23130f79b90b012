package processchatturn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connector-workers/internal/common/config"
	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/session"
	"connector-workers/internal/models"
)

type failingStore struct {
	createErr error
	updateErr error
	updates   int
}

func (s *failingStore) Get(ctx context.Context, id string) (*models.Session, error) {
	return nil, session.ErrNotFound
}

func (s *failingStore) CreateIfAbsent(ctx context.Context, id string) (*models.Session, bool, error) {
	if s.createErr != nil {
		return nil, false, s.createErr
	}
	return models.NewSession(id, time.Now()), true, nil
}

func (s *failingStore) Update(ctx context.Context, sess *models.Session) error {
	s.updates++
	return s.updateErr
}

func (s *failingStore) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestHandler(t *testing.T, cfg *Config, store session.Repository, sites llm.CallSites) *Handler {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return NewHandler(cfg, Dependencies{
		Store:     store,
		CallSites: sites,
		Logger:    logger.NewTestLogger(t),
	})
}

func memoryStore() *session.MemoryStore {
	return session.NewMemoryStore(session.MemoryOptions{TTL: time.Hour, MaxEntries: 100})
}

func requester() *models.UserProfile {
	return &models.UserProfile{ID: "req-1", Name: "Marta", Role: models.RoleEntrepreneur, Industry: "fintech", Stage: "seed"}
}

func TestHandler_Execute_InvestorSearch(t *testing.T) {
	h := newTestHandler(t, nil, memoryStore(), llm.CallSites{})

	out, err := h.Execute(context.Background(), &Input{
		SessionID:   "s-1",
		UserMessage: "busco inversores de fintech",
		UserProfile: requester(),
		CandidatePool: []models.UserProfile{
			{ID: "inv-1", Name: "Carlos Ruiz", Role: models.RoleInvestor, Industry: "fintech", Country: "Spain"},
			{ID: "ent-1", Name: "Lucía", Role: models.RoleEntrepreneur, Industry: "fintech"},
		},
	})
	require.NoError(t, err)

	require.Len(t, out.Matches, 1)
	assert.True(t, out.HasMatches)
	assert.Equal(t, "s-1", out.SessionID)

	m := out.Matches[0]
	assert.Equal(t, "inv-1", m.CandidateID)
	assert.GreaterOrEqual(t, m.Score, 65)
	assert.LessOrEqual(t, m.Score, 100)
	assert.NotEmpty(t, m.ConversationStarters)
	assert.Contains(t, out.Message, "1. **Carlos Ruiz** (Inversor) - fintech - Spain")
}

func TestHandler_Execute_NoInvestors(t *testing.T) {
	h := newTestHandler(t, nil, memoryStore(), llm.CallSites{})

	out, err := h.Execute(context.Background(), &Input{
		SessionID:   "s-2",
		UserMessage: "busco inversores",
		UserProfile: requester(),
		CandidatePool: []models.UserProfile{
			{ID: "ent-1", Name: "Lucía", Role: models.RoleEntrepreneur, Bio: "building a payments app"},
			{ID: "val-1", Name: "Jorge", Role: models.RoleValidator},
		},
	})
	require.NoError(t, err)

	assert.False(t, out.HasMatches)
	assert.Empty(t, out.Matches)
	assert.Equal(t, noInvestorsMessage, out.Message)
}

func TestHandler_Execute_EmptyPool(t *testing.T) {
	h := newTestHandler(t, nil, memoryStore(), llm.CallSites{})

	out, err := h.Execute(context.Background(), &Input{
		SessionID:   "s-3",
		UserMessage: "quiero conocer mentores de edtech",
		UserProfile: requester(),
	})
	require.NoError(t, err)

	require.NotNil(t, out.Matches)
	assert.Empty(t, out.Matches)
	assert.False(t, out.HasMatches)
	assert.Contains(t, out.Message, "No encontré mentores en edtech")
}

func TestHandler_Execute_ExcludesRequester(t *testing.T) {
	h := newTestHandler(t, nil, memoryStore(), llm.CallSites{})

	out, err := h.Execute(context.Background(), &Input{
		SessionID:   "s-4",
		UserMessage: "busco emprendedores de fintech",
		UserProfile: requester(),
		CandidatePool: []models.UserProfile{
			{ID: "req-1", Name: "Marta", Role: models.RoleEntrepreneur, Industry: "fintech", Stage: "seed"},
			{ID: "ent-2", Name: "Diego", Role: models.RoleEntrepreneur, Industry: "fintech"},
		},
	})
	require.NoError(t, err)

	require.Len(t, out.Matches, 1)
	assert.Equal(t, "ent-2", out.Matches[0].CandidateID)
	for _, m := range out.Matches {
		assert.NotEqual(t, "req-1", m.CandidateID)
	}
}

func TestHandler_Execute_CapsMatches(t *testing.T) {
	h := newTestHandler(t, nil, memoryStore(), llm.CallSites{})

	var pool []models.UserProfile
	for i := 0; i < 8; i++ {
		pool = append(pool, models.UserProfile{
			ID: fmt.Sprintf("inv-%d", i), Name: fmt.Sprintf("Inversor %d", i), Role: models.RoleInvestor, Industry: "fintech",
		})
	}

	out, err := h.Execute(context.Background(), &Input{
		SessionID:     "s-5",
		UserMessage:   "busco inversores de fintech",
		UserProfile:   requester(),
		CandidatePool: pool,
	})
	require.NoError(t, err)

	assert.Len(t, out.Matches, 5)
	assert.True(t, strings.HasPrefix(out.Message, "🎯 **8 inversores encontrados:**"))
}

func TestHandler_Execute_GeneratesSessionID(t *testing.T) {
	h := newTestHandler(t, nil, memoryStore(), llm.CallSites{})

	out, err := h.Execute(context.Background(), &Input{UserMessage: "hola"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionID)
}

func TestHandler_Execute_AccumulatesHistory(t *testing.T) {
	store := memoryStore()
	h := newTestHandler(t, nil, store, llm.CallSites{})
	ctx := context.Background()

	pool := []models.UserProfile{
		{ID: "inv-1", Name: "Carlos", Role: models.RoleInvestor, Industry: "fintech"},
	}
	_, err := h.Execute(ctx, &Input{SessionID: "s-6", UserMessage: "busco inversores de fintech", UserProfile: requester(), CandidatePool: pool})
	require.NoError(t, err)
	_, err = h.Execute(ctx, &Input{SessionID: "s-6", UserMessage: "y mentores?", CandidatePool: pool})
	require.NoError(t, err)

	sess, err := store.Get(ctx, "s-6")
	require.NoError(t, err)
	require.Len(t, sess.History, 4)
	assert.Equal(t, models.MessageRoleUser, sess.History[0].Role)
	assert.Equal(t, "busco inversores de fintech", sess.History[0].Content)
	assert.Equal(t, models.MessageRoleAssistant, sess.History[3].Role)

	require.NotNil(t, sess.UserContext)
	assert.Equal(t, "req-1", sess.UserContext.ID, "profile from the first turn is remembered")
	assert.Empty(t, sess.SuggestedConnections, "second turn found no mentors")
}

func TestHandler_Execute_PreferencesPolicy(t *testing.T) {
	tests := []struct {
		name         string
		policy       string
		wantIndustry string
	}{
		{name: "merge keeps earlier fields", policy: config.PreferencesMerge, wantIndustry: "fintech"},
		{name: "replace recomputes each turn", policy: config.PreferencesReplace, wantIndustry: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			cfg.PreferencesPolicy = tt.policy
			store := memoryStore()
			h := newTestHandler(t, cfg, store, llm.CallSites{})
			ctx := context.Background()

			_, err := h.Execute(ctx, &Input{SessionID: "p", UserMessage: "busco inversores de fintech"})
			require.NoError(t, err)
			_, err = h.Execute(ctx, &Input{SessionID: "p", UserMessage: "que estén en españa"})
			require.NoError(t, err)

			sess, err := store.Get(ctx, "p")
			require.NoError(t, err)
			require.NotNil(t, sess.SearchPreferences)
			assert.Equal(t, tt.wantIndustry, sess.SearchPreferences.Industry)
			assert.Equal(t, "españa", sess.SearchPreferences.Location)
		})
	}
}

func TestHandler_Execute_InvalidRequest(t *testing.T) {
	store := memoryStore()
	h := newTestHandler(t, nil, store, llm.CallSites{})

	tests := []struct {
		name  string
		input *Input
	}{
		{name: "empty message", input: &Input{SessionID: "bad-1"}},
		{name: "profile without id", input: &Input{SessionID: "bad-2", UserMessage: "hola", UserProfile: &models.UserProfile{Name: "X"}}},
		{name: "oversized message", input: &Input{SessionID: "bad-3", UserMessage: strings.Repeat("a", 4001)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, welcomeMessage, out.Message)
			assert.Equal(t, tt.input.SessionID, out.SessionID)
			assert.NotNil(t, out.Matches)
			assert.False(t, out.HasMatches)

			_, getErr := store.Get(context.Background(), tt.input.SessionID)
			assert.ErrorIs(t, getErr, session.ErrNotFound, "rejected turns are not stored")
		})
	}
}

func TestHandler_Execute_PanicBecomesFallback(t *testing.T) {
	sites := llm.CallSites{
		Extraction: llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
			panic("boom")
		}),
	}
	h := newTestHandler(t, nil, memoryStore(), sites)

	out, err := h.Execute(context.Background(), &Input{SessionID: "s-7", UserMessage: "busco inversores"})
	require.NoError(t, err)
	assert.Equal(t, welcomeMessage, out.Message)
	assert.Equal(t, "s-7", out.SessionID)
	assert.False(t, out.HasMatches)
}

func TestHandler_Execute_ExtractionFailureUsesRules(t *testing.T) {
	sites := llm.CallSites{
		Extraction: llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
			return "", llm.ErrTimeout
		}),
	}
	h := newTestHandler(t, nil, memoryStore(), sites)

	out, err := h.Execute(context.Background(), &Input{
		SessionID:     "s-8",
		UserMessage:   "busco inversores de fintech",
		UserProfile:   requester(),
		CandidatePool: []models.UserProfile{{ID: "inv-1", Name: "Carlos", Role: models.RoleInvestor, Industry: "fintech"}},
	})
	require.NoError(t, err)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "inv-1", out.Matches[0].CandidateID)
}

func TestHandler_Execute_DetectsInvestorLabelledFounder(t *testing.T) {
	sites := llm.CallSites{
		Disambiguation: llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
			if strings.Contains(req.Prompt, "venture capital") {
				return "INVESTOR", nil
			}
			return "ENTREPRENEUR", nil
		}),
	}
	h := newTestHandler(t, nil, memoryStore(), sites)

	out, err := h.Execute(context.Background(), &Input{
		SessionID:   "s-9",
		UserMessage: "busco inversores de fintech",
		UserProfile: requester(),
		CandidatePool: []models.UserProfile{
			{ID: "f-1", Name: "Elena", Role: models.RoleEntrepreneur, Industry: "fintech", Bio: "runs an early-stage venture capital fund"},
			{ID: "f-2", Name: "Raúl", Role: models.RoleEntrepreneur, Industry: "fintech", Bio: "building a neobank"},
		},
	})
	require.NoError(t, err)

	require.Len(t, out.Matches, 1)
	assert.Equal(t, "f-1", out.Matches[0].CandidateID)
	assert.True(t, out.Matches[0].AIDetected)
	assert.Equal(t, models.RoleInvestor, out.Matches[0].Role)
	assert.Contains(t, out.Message, "🤖")
}

func TestHandler_Execute_DisambiguationPanic(t *testing.T) {
	sites := llm.CallSites{
		Disambiguation: llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
			panic("sdk bug")
		}),
	}
	h := newTestHandler(t, nil, memoryStore(), sites)

	var out *Output
	require.NotPanics(t, func() {
		var err error
		out, err = h.Execute(context.Background(), &Input{
			SessionID:   "s-panic",
			UserMessage: "busco inversores de fintech",
			UserProfile: requester(),
			CandidatePool: []models.UserProfile{
				{ID: "f-1", Name: "Elena", Role: models.RoleEntrepreneur, Industry: "fintech", Bio: "venture fund partner"},
				{ID: "inv-1", Name: "Carlos", Role: models.RoleInvestor, Industry: "fintech"},
			},
		})
		require.NoError(t, err)
	})

	require.Len(t, out.Matches, 1)
	assert.Equal(t, "inv-1", out.Matches[0].CandidateID, "panicking classification excludes the candidate")
	assert.Equal(t, "s-panic", out.SessionID)
}

func TestHandler_Execute_SavesAfterDeadline(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	store := session.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "t:", time.Hour)

	sites := llm.CallSites{
		Disambiguation: llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}),
	}
	h := newTestHandler(t, nil, store, sites)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	out, err := h.Execute(ctx, &Input{
		SessionID:   "s-late",
		UserMessage: "busco inversores",
		UserProfile: requester(),
		CandidatePool: []models.UserProfile{
			{ID: "f-1", Name: "Elena", Role: models.RoleEntrepreneur, Industry: "fintech"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, noInvestorsMessage, out.Message)
	require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)

	stored, err := store.Get(context.Background(), "s-late")
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	assert.Equal(t, "busco inversores", stored.History[0].Content)
	assert.Equal(t, noInvestorsMessage, stored.History[1].Content)
}

func TestHandler_Execute_StoreFailures(t *testing.T) {
	pool := []models.UserProfile{{ID: "inv-1", Name: "Carlos", Role: models.RoleInvestor, Industry: "fintech"}}

	t.Run("unreachable on load", func(t *testing.T) {
		store := &failingStore{createErr: errors.New("connection refused")}
		h := newTestHandler(t, nil, store, llm.CallSites{})

		out, err := h.Execute(context.Background(), &Input{SessionID: "s", UserMessage: "busco inversores de fintech", UserProfile: requester(), CandidatePool: pool})
		require.NoError(t, err)
		assert.True(t, out.HasMatches)
		assert.Zero(t, store.updates, "transient sessions are not saved")
	})

	t.Run("update fails", func(t *testing.T) {
		store := &failingStore{updateErr: errors.New("connection reset")}
		h := newTestHandler(t, nil, store, llm.CallSites{})

		out, err := h.Execute(context.Background(), &Input{SessionID: "s", UserMessage: "busco inversores de fintech", UserProfile: requester(), CandidatePool: pool})
		require.NoError(t, err)
		assert.True(t, out.HasMatches)
		assert.Equal(t, 1, store.updates)
	})

	t.Run("no store", func(t *testing.T) {
		h := newTestHandler(t, nil, nil, llm.CallSites{})

		out, err := h.Execute(context.Background(), &Input{SessionID: "s", UserMessage: "busco inversores de fintech", UserProfile: requester(), CandidatePool: pool})
		require.NoError(t, err)
		assert.True(t, out.HasMatches)
	})
}

func TestHandler_Execute_SerializesSameSession(t *testing.T) {
	store := memoryStore()
	h := newTestHandler(t, nil, store, llm.CallSites{})
	ctx := context.Background()

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = h.Execute(ctx, &Input{SessionID: "shared", UserMessage: fmt.Sprintf("mensaje %d", i)})
		}(i)
	}
	wg.Wait()

	sess, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, sess.History, 2*turns, "no turn is lost")
	for i := 0; i < len(sess.History); i += 2 {
		assert.Equal(t, models.MessageRoleUser, sess.History[i].Role)
		assert.Equal(t, models.MessageRoleAssistant, sess.History[i+1].Role)
	}
}

func TestComposeMessage(t *testing.T) {
	top := []models.MatchResult{
		{Name: "Ana", Role: models.RoleMentor, Industry: "edtech", Country: "Chile"},
		{Name: "Luis", Role: models.RoleInvestor, AIDetected: true},
	}

	tests := []struct {
		name     string
		criteria models.SearchCriteria
		top      []models.MatchResult
		total    int
		contains []string
		equals   string
	}{
		{
			name:     "listing",
			criteria: models.SearchCriteria{TargetType: models.RoleMentor},
			top:      top,
			total:    7,
			contains: []string{
				"🎯 **7 mentores encontrados:**",
				"1. **Ana** (Mentor) - edtech - Chile",
				"2. **Luis** (Inversor 🤖)",
				"Puedes conectar con ellos",
			},
		},
		{
			name:     "no investors template",
			criteria: models.SearchCriteria{TargetType: models.RoleInvestor, Industry: "fintech"},
			equals:   noInvestorsMessage,
		},
		{
			name:     "generic no results echoes criteria",
			criteria: models.SearchCriteria{TargetType: models.RoleValidator, Industry: "saas"},
			contains: []string{"No encontré validadores en saas", "criterios más amplios"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeMessage(tt.criteria, tt.top, tt.total)
			if tt.equals != "" {
				assert.Equal(t, tt.equals, got)
			}
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestFallbackMessage(t *testing.T) {
	assert.Equal(t, welcomeMessage, FallbackMessage(0))
	assert.Contains(t, FallbackMessage(3), "**3 conexiones**")
}
