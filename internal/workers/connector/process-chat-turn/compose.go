package processchatturn

import (
	"fmt"
	"strings"

	"connector-workers/internal/models"
)

const noInvestorsMessage = `❌ **No hay inversores registrados** en la plataforma todavía.

💡 **Sugerencias:**
• Invita a inversores a unirse a ASTAR Labs
• Busca mentores o validadores que puedan darte feedback
• Conecta con emprendedores en tu industria para compartir experiencias

🚀 ¿Quieres que busque emprendedores, mentores o validadores en su lugar?`

const noResultsMessage = `🔍 No encontré %s en este momento.

💡 **Sugerencias:**
• Intenta buscar con criterios más amplios
• Busca usuarios en otras industrias o países
• Comparte tu perfil para atraer conexiones relevantes

🚀 ¿Quieres que busque con otros criterios?`

const foundMessage = `🎯 **%d %s encontrados:**

%s

✨ Puedes conectar con ellos desde la plataforma.`

const fallbackFoundMessage = `¡He encontrado **%d conexiones** potenciales para ti! 🎯

Aquí están las mejores coincidencias basadas en tu solicitud.
Revisa los perfiles sugeridos y si alguno te interesa, puedo ayudarte a iniciar la conversación.

¿Te gustaría que busque conexiones más específicas o tienes alguna preferencia adicional?`

const welcomeMessage = `¡Hola! 👋 Soy tu AI SuperConnector.

Puedo ayudarte a encontrar:
• 🚀 **Emprendedores** en tu misma industria o etapa
• 💰 **Inversores** interesados en tu sector
• ✅ **Validadores** para feedback de tu producto
• 🤝 **Partners** para colaboraciones estratégicas

¿Qué tipo de conexiones estás buscando?`

// ComposeMessage renders the reply for a turn. total is the number of
// qualified matches; top is what gets listed.
func ComposeMessage(criteria models.SearchCriteria, top []models.MatchResult, total int) string {
	if len(top) == 0 {
		if criteria.TargetType == models.RoleInvestor {
			return noInvestorsMessage
		}
		return fmt.Sprintf(noResultsMessage, criteriaText(criteria))
	}

	lines := make([]string, 0, len(top))
	for i, m := range top {
		lines = append(lines, matchLine(i+1, m))
	}
	return fmt.Sprintf(foundMessage, total, criteria.TargetType.Plural(), strings.Join(lines, "\n"))
}

func matchLine(n int, m models.MatchResult) string {
	badge := ""
	if m.AIDetected {
		badge = " 🤖"
	}

	parts := []string{fmt.Sprintf("%d. **%s** (%s%s)", n, m.Name, m.Role.Label(), badge)}
	if m.Industry != "" {
		parts = append(parts, "- "+m.Industry)
	}
	if m.Country != "" {
		parts = append(parts, "- "+m.Country)
	}
	return strings.Join(parts, " ")
}

func criteriaText(criteria models.SearchCriteria) string {
	parts := []string{criteria.TargetType.Plural()}
	if criteria.Industry != "" {
		parts = append(parts, "en "+criteria.Industry)
	}
	return strings.Join(parts, " ")
}

// FallbackMessage is the reply used when a turn could not complete.
func FallbackMessage(matchCount int) string {
	if matchCount > 0 {
		return fmt.Sprintf(fallbackFoundMessage, matchCount)
	}
	return welcomeMessage
}
