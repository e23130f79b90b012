package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"founder", RoleEntrepreneur, true},
		{"Startup  Founder", RoleEntrepreneur, true},
		{"emprendedor", RoleEntrepreneur, true},
		{"INVERSORES", RoleInvestor, true},
		{"investors", RoleInvestor, true},
		{"mentores", RoleMentor, true},
		{"validadores", RoleValidator, true},
		{" partners ", RolePartner, true},
		{"astronaut", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseRole(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTarget_DefaultsToEntrepreneur(t *testing.T) {
	assert.Equal(t, RoleEntrepreneur, NormalizeTarget(""))
	assert.Equal(t, RoleEntrepreneur, NormalizeTarget("unicorn hunter"))
	assert.Equal(t, RoleInvestor, NormalizeTarget("inversores"))
}

func TestRoleLabels(t *testing.T) {
	assert.Equal(t, "Inversor", RoleInvestor.Label())
	assert.Equal(t, "mentores", RoleMentor.Plural())
	assert.Equal(t, "Usuario", Role("").Label())
	assert.Equal(t, "usuarios", Role("").Plural())
}

func TestSynonymsFor(t *testing.T) {
	got := SynonymsFor(RoleInvestor)
	assert.Equal(t, []string{"inversor", "inversora", "inversores", "investor", "investors"}, got)
}

func TestUserProfile_UnmarshalJSON(t *testing.T) {
	raw := `{
		"id": 42,
		"full_name": "Laura Ventures",
		"user_type": "Founder",
		"industry": "fintech",
		"interests": "investing in fintech",
		"looking_for": ["startups to fund"],
		"can_offer": null
	}`

	var p UserProfile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "Laura Ventures", p.Name)
	assert.Equal(t, RoleEntrepreneur, p.Role)
	assert.Equal(t, StringList{"investing in fintech"}, p.Interests)
	assert.Equal(t, StringList{"startups to fund"}, p.LookingFor)
	assert.Nil(t, p.CanOffer)
	assert.Equal(t, "Laura", p.FirstName())
}

func TestUserProfile_RoleKeyWins(t *testing.T) {
	var p UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u1","role":"inversor","userType":"mentor"}`), &p))
	assert.Equal(t, RoleInvestor, p.Role)
}

func TestCandidate_UnmarshalKeepsFlag(t *testing.T) {
	var c Candidate
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","role":"investor","aiDetected":true}`), &c))
	assert.Equal(t, "c1", c.ID)
	assert.True(t, c.AIDetected)
}

func TestUserProfile_MergeFrom(t *testing.T) {
	p := UserProfile{ID: "u1", Industry: "fintech", Stage: "seed"}
	p.MergeFrom(&UserProfile{Stage: "mvp", Country: "Spain"})

	assert.Equal(t, "fintech", p.Industry)
	assert.Equal(t, "mvp", p.Stage)
	assert.Equal(t, "Spain", p.Country)
	assert.Equal(t, "u1", p.ID)
}

func TestSearchCriteria_Merge(t *testing.T) {
	prev := SearchCriteria{TargetType: RoleInvestor, Industry: "fintech", Keywords: []string{"pagos"}}
	next := SearchCriteria{Location: "españa"}

	merged := prev.Merge(next)
	assert.Equal(t, RoleInvestor, merged.TargetType)
	assert.Equal(t, "fintech", merged.Industry)
	assert.Equal(t, "españa", merged.Location)
	assert.Equal(t, []string{"pagos"}, merged.Keywords)
}

func TestSearchCriteria_Normalize(t *testing.T) {
	var c SearchCriteria
	c.Normalize()
	assert.Equal(t, RoleEntrepreneur, c.TargetType)
	assert.NotNil(t, c.Keywords)
}

func TestSession_TranscriptAndClone(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession("s1", now)
	s.AppendMessage(MessageRoleUser, "busco inversores", now)
	s.AppendMessage(MessageRoleAssistant, "🎯 **1 inversores encontrados:**", now.Add(time.Second))
	s.SuggestedConnections = []MatchResult{{CandidateID: "c1", ReasonComponents: []string{"✓ Es inversor"}}}

	assert.Equal(t, "Usuario: busco inversores\nAsistente: 🎯 **1 inversores encontrados:**", s.Transcript())

	clone := s.Clone()
	clone.History[0].Content = "changed"
	clone.SuggestedConnections[0].ReasonComponents[0] = "changed"

	assert.Equal(t, "busco inversores", s.History[0].Content)
	assert.Equal(t, "✓ Es inversor", s.SuggestedConnections[0].ReasonComponents[0])
	assert.Equal(t, now.Add(time.Second), s.UpdatedAt)
}

func TestJoinReasons(t *testing.T) {
	assert.Equal(t, DefaultReason, JoinReasons(nil))
	assert.Equal(t, "✓ Es inversor • 🎯 Industria: fintech", JoinReasons([]string{"✓ Es inversor", "🎯 Industria: fintech"}))
}
