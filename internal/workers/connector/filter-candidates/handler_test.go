package filtercandidates

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connector-workers/internal/common/llm"
	"connector-workers/internal/common/logger"
	"connector-workers/internal/models"
)

// scriptedCompleter answers INVESTOR when the prompt mentions "venture".
type scriptedCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	if strings.Contains(req.Prompt, "venture") {
		return " investor\n", nil
	}
	return "ENTREPRENEUR", nil
}

func profile(id string, role models.Role, bio string) models.UserProfile {
	return models.UserProfile{ID: id, Name: "User " + id, Role: role, Bio: bio}
}

func ids(candidates []models.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ID)
	}
	return out
}

func newFilter(t *testing.T, completer llm.Completer, opts Options) *Filter {
	var primary Disambiguator
	if completer != nil {
		primary = NewRemoteDisambiguator(completer, logger.NewTestLogger(t))
	}
	return NewFilter(primary, opts, logger.NewTestLogger(t))
}

func TestFilter_DirectMatches(t *testing.T) {
	completer := &scriptedCompleter{}
	f := newFilter(t, completer, Options{MaxCalls: 10, Concurrency: 2})

	pool := []models.UserProfile{
		profile("me", models.RoleMentor, ""),
		profile("m1", models.RoleMentor, ""),
		profile("e1", models.RoleEntrepreneur, "venture capital"),
		profile("x1", "", ""),
		profile("m2", models.RoleMentor, ""),
	}

	got, stats := f.Apply(context.Background(), "me", models.RoleMentor, pool)
	assert.Equal(t, []string{"m1", "m2"}, ids(got))
	assert.Equal(t, 2, stats.Direct)
	assert.Zero(t, stats.Ambiguous)
	assert.Zero(t, completer.calls.Load(), "only investor searches disambiguate")
}

func TestFilter_InvestorDisambiguation(t *testing.T) {
	completer := &scriptedCompleter{}
	f := newFilter(t, completer, Options{MaxCalls: 10, Concurrency: 3})

	pool := []models.UserProfile{
		profile("e1", models.RoleEntrepreneur, "building a payments app"),
		profile("i1", models.RoleInvestor, ""),
		profile("e2", models.RoleEntrepreneur, "runs an early-stage venture capital fund"),
		profile("v1", models.RoleValidator, ""),
	}

	got, stats := f.Apply(context.Background(), "", models.RoleInvestor, pool)
	require.Equal(t, []string{"i1", "e2"}, ids(got), "pool order is preserved")

	assert.False(t, got[0].AIDetected)
	assert.True(t, got[1].AIDetected)
	assert.Equal(t, models.RoleInvestor, got[1].Role)
	assert.Equal(t, models.RoleEntrepreneur, pool[2].Role, "caller's pool is not modified")

	assert.Equal(t, int32(2), completer.calls.Load(), "one call per ambiguous candidate")
	assert.Equal(t, Stats{Direct: 1, Ambiguous: 2, Detected: 1}, stats)
}

func TestFilter_MaxCallsBound(t *testing.T) {
	completer := &scriptedCompleter{}
	f := newFilter(t, completer, Options{MaxCalls: 2, Concurrency: 2})

	var pool []models.UserProfile
	for _, id := range []string{"a", "b", "c", "d"} {
		pool = append(pool, profile(id, models.RoleEntrepreneur, "venture partner"))
	}

	got, stats := f.Apply(context.Background(), "", models.RoleInvestor, pool)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	assert.Equal(t, int32(2), completer.calls.Load())
	assert.Equal(t, 2, stats.Skipped)
}

func TestFilter_FailClosed(t *testing.T) {
	completer := &scriptedCompleter{err: llm.ErrTimeout}
	pool := []models.UserProfile{
		profile("e1", models.RoleEntrepreneur, "angel investing and portfolio support"),
		profile("e2", models.RoleEntrepreneur, "building a marketplace"),
	}

	t.Run("failures exclude", func(t *testing.T) {
		f := newFilter(t, completer, Options{MaxCalls: 5, Concurrency: 1})
		got, stats := f.Apply(context.Background(), "", models.RoleInvestor, pool)
		assert.Empty(t, got)
		assert.Equal(t, 2, stats.Failed)
	})

	t.Run("rule fallback", func(t *testing.T) {
		f := newFilter(t, completer, Options{MaxCalls: 5, Concurrency: 1, RuleFallback: true})
		got, stats := f.Apply(context.Background(), "", models.RoleInvestor, pool)
		assert.Equal(t, []string{"e1"}, ids(got))
		assert.True(t, got[0].AIDetected)
		assert.Equal(t, 1, stats.Detected)
	})

	t.Run("no provider", func(t *testing.T) {
		f := newFilter(t, nil, Options{MaxCalls: 5})
		got, stats := f.Apply(context.Background(), "", models.RoleInvestor, pool)
		assert.Empty(t, got)
		assert.Equal(t, 2, stats.Skipped)
	})
}

func TestFilter_PanickingCompleterFailsClosed(t *testing.T) {
	panicking := llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
		panic("sdk bug")
	})
	pool := []models.UserProfile{
		profile("e1", models.RoleEntrepreneur, "angel investing and portfolio support"),
		profile("e2", models.RoleEntrepreneur, "building a marketplace"),
		profile("i1", models.RoleInvestor, ""),
	}

	t.Run("excluded", func(t *testing.T) {
		f := newFilter(t, panicking, Options{MaxCalls: 5, Concurrency: 2})
		var (
			got   []models.Candidate
			stats Stats
		)
		require.NotPanics(t, func() {
			got, stats = f.Apply(context.Background(), "", models.RoleInvestor, pool)
		})
		assert.Equal(t, []string{"i1"}, ids(got))
		assert.Equal(t, 2, stats.Failed)
	})

	t.Run("rule fallback", func(t *testing.T) {
		f := newFilter(t, panicking, Options{MaxCalls: 5, Concurrency: 2, RuleFallback: true})
		got, _ := f.Apply(context.Background(), "", models.RoleInvestor, pool)
		assert.Equal(t, []string{"e1", "i1"}, ids(got))
	})
}

func TestLooksLikeInvestor(t *testing.T) {
	tests := []struct {
		name string
		p    models.UserProfile
		want bool
	}{
		{"vc in name", models.UserProfile{Name: "Ana (VC)"}, true},
		{"vc inside a word", models.UserProfile{Name: "Ivcare Labs"}, false},
		{"ventures company", models.UserProfile{Industry: "Seaside Ventures"}, true},
		{"portfolio interest", models.UserProfile{Interests: models.StringList{"Portfolio building"}}, true},
		{"looking for startups", models.UserProfile{LookingFor: models.StringList{"startups to fund"}}, true},
		{"plain founder", models.UserProfile{Name: "Luis", Bio: "I build logistics software"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeInvestor(tt.p))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := models.UserProfile{
		Name:       "Marta",
		Industry:   "fintech",
		Bio:        "angel",
		Interests:  models.StringList{"pagos", "cripto"},
		LookingFor: models.StringList{"deal flow"},
		Stage:      "seed",
	}
	prompt := BuildPrompt(p)
	assert.Contains(t, prompt, "- Name: Marta")
	assert.Contains(t, prompt, "- Company: fintech")
	assert.Contains(t, prompt, "- Interests: pagos, cripto")
	assert.Contains(t, prompt, "- Looking for: deal flow")
	assert.Contains(t, prompt, "- Stage: seed")
}

func TestRemoteDisambiguator_Error(t *testing.T) {
	d := NewRemoteDisambiguator(llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
		assert.Equal(t, 10, req.MaxTokens)
		assert.Zero(t, req.Temperature)
		return "", errors.New("unavailable")
	}), logger.NewNoOpLogger())

	_, err := d.IsInvestor(context.Background(), models.UserProfile{ID: "x"})
	assert.ErrorIs(t, err, ErrDisambiguationFailed)
}

func TestHandler_Execute(t *testing.T) {
	var input Input
	require.NoError(t, json.Unmarshal([]byte(`{
		"requesterId": "u1",
		"targetType": "inversores",
		"candidatePool": [
			{"id": "u1", "role": "investor"},
			{"id": 7, "name": "Fondo Norte", "userType": "founder", "bio": "we lead venture rounds"},
			{"id": "u3", "role": "mentor"}
		]
	}`), &input))

	h := NewHandler(LoadConfig(), &scriptedCompleter{}, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &input)
	require.NoError(t, err)

	assert.Equal(t, models.RoleInvestor, out.TargetType)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "7", out.Candidates[0].ID)
	assert.True(t, out.Candidates[0].AIDetected)
}

func TestHandler_Execute_DisambiguationDisabled(t *testing.T) {
	cfg := LoadConfig()
	cfg.DisambiguationEnabled = false
	completer := &scriptedCompleter{}
	h := NewHandler(cfg, completer, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		TargetType:    "investor",
		CandidatePool: []models.UserProfile{profile("e1", models.RoleEntrepreneur, "venture capital")},
	})
	require.NoError(t, err)
	assert.Zero(t, out.Count)
	assert.NotNil(t, out.Candidates)
	assert.Zero(t, completer.calls.Load())
}
