package generateconversationstarters

import (
	"fmt"
	"strings"

	"connector-workers/internal/models"
)

const MaxStarters = 3

// Starters renders up to MaxStarters opening messages for a match. Rules
// run in a fixed order: industry, stage, then the searched intent. The
// generic opener is used only when nothing else applies.
func Starters(match models.MatchResult, criteria models.SearchCriteria) []string {
	first := firstName(match.Name)
	var out []string

	if match.Industry != "" {
		out = append(out, fmt.Sprintf("Hola %s! Vi que trabajas en %s, me gustaría conocer más sobre tu proyecto.", first, match.Industry))
	}

	if match.Stage != "" {
		out = append(out, fmt.Sprintf("Hola! Veo que estás en etapa %s. ¿Cómo va el desarrollo?", match.Stage))
	}

	switch criteria.LookingFor {
	case "funding":
		out = append(out, fmt.Sprintf("Hola %s! Estoy buscando financiación. ¿Tienes experiencia levantando capital?", first))
	case "validation":
		out = append(out, "Hola! ¿Estarías interesado en dar feedback sobre mi producto?")
	case "partner":
		out = append(out, fmt.Sprintf("Hola %s! Creo que podríamos colaborar. ¿Te interesaría explorar sinergias?", first))
	}

	if len(out) == 0 {
		out = append(out, fmt.Sprintf("Hola %s! Vi tu perfil en ASTAR y me gustaría conectar contigo.", first))
	}

	if len(out) > MaxStarters {
		out = out[:MaxStarters]
	}
	return out
}

// Attach returns copies of matches with their starters filled in.
func Attach(matches []models.MatchResult, criteria models.SearchCriteria) []models.MatchResult {
	out := make([]models.MatchResult, len(matches))
	for i, m := range matches {
		m.ConversationStarters = Starters(m, criteria)
		out[i] = m
	}
	return out
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "Usuario"
}
