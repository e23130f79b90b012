package generateconversationstarters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connector-workers/internal/common/logger"
	"connector-workers/internal/models"
)

func TestStarters(t *testing.T) {
	tests := []struct {
		name       string
		match      models.MatchResult
		lookingFor string
		want       []string
	}{
		{
			name:       "industry stage and funding",
			match:      models.MatchResult{Name: "Laura Gómez", Industry: "fintech", Stage: "seed"},
			lookingFor: "funding",
			want: []string{
				"Hola Laura! Vi que trabajas en fintech, me gustaría conocer más sobre tu proyecto.",
				"Hola! Veo que estás en etapa seed. ¿Cómo va el desarrollo?",
				"Hola Laura! Estoy buscando financiación. ¿Tienes experiencia levantando capital?",
			},
		},
		{
			name:       "validation intent only",
			match:      models.MatchResult{Name: "Pedro"},
			lookingFor: "validation",
			want:       []string{"Hola! ¿Estarías interesado en dar feedback sobre mi producto?"},
		},
		{
			name:       "partner intent with stage",
			match:      models.MatchResult{Name: "Ana", Stage: "mvp"},
			lookingFor: "partner",
			want: []string{
				"Hola! Veo que estás en etapa mvp. ¿Cómo va el desarrollo?",
				"Hola Ana! Creo que podríamos colaborar. ¿Te interesaría explorar sinergias?",
			},
		},
		{
			name:       "generic fallback",
			match:      models.MatchResult{},
			lookingFor: "customers",
			want:       []string{"Hola Usuario! Vi tu perfil en ASTAR y me gustaría conectar contigo."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := models.SearchCriteria{LookingFor: tt.lookingFor}
			got := Starters(tt.match, criteria)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxStarters)
			assert.Equal(t, got, Starters(tt.match, criteria), "same inputs, same openers")
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))
	in := &Input{
		Matches:  []models.MatchResult{{CandidateID: "1", Name: "Sofía", Industry: "edtech"}},
		Criteria: models.SearchCriteria{LookingFor: "funding"},
	}

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.Matches, 1)
	assert.Len(t, out.Matches[0].ConversationStarters, 2)
	assert.Empty(t, in.Matches[0].ConversationStarters, "input matches are not modified")
}
