package extractsearchcriteria

import (
	"context"
	"strings"

	"connector-workers/internal/models"
)

type keywordEntry struct {
	value    string
	keywords []string
}

// Tables are scanned in order; the first entry with any keyword contained
// in the lowercased message wins its category.
var (
	targetTable = []keywordEntry{
		{string(models.RoleInvestor), []string{"inversor", "investor", "inversión", "capital", "funding"}},
		{string(models.RoleValidator), []string{"validador", "validator", "feedback", "validación"}},
		{string(models.RolePartner), []string{"partner", "socio", "colaboración", "colaborador", "alianza"}},
		{string(models.RoleMentor), []string{"mentor", "mentora", "asesor", "consejero"}},
		{string(models.RoleEntrepreneur), []string{"emprendedor", "founder", "startup", "empresa"}},
	}

	industryTable = []keywordEntry{
		{"fintech", []string{"fintech", "financiero", "banco", "pagos", "cripto", "blockchain"}},
		{"healthtech", []string{"healthtech", "salud", "médico", "hospital", "telemedicina"}},
		{"edtech", []string{"edtech", "educación", "aprendizaje", "e-learning", "cursos"}},
		{"saas", []string{"saas", "software", "cloud", "plataforma"}},
		{"ecommerce", []string{"ecommerce", "e-commerce", "tienda", "marketplace", "retail"}},
		{"ai", []string{"inteligencia artificial", "ai", "machine learning", "ml", "deep learning"}},
		{"blockchain", []string{"blockchain", "crypto", "web3", "nft", "defi"}},
		{"gaming", []string{"gaming", "juegos", "videojuegos", "esports"}},
		{"foodtech", []string{"foodtech", "comida", "restaurante", "delivery"}},
		{"proptech", []string{"proptech", "inmobiliario", "bienes raíces", "vivienda"}},
		{"agritech", []string{"agritech", "agricultura", "farming", "agrícola"}},
		{"cleantech", []string{"cleantech", "energía", "sostenible", "renovable", "verde"}},
		{"biotech", []string{"biotech", "biotecnología", "biología", "farmacéutico"}},
		{"legaltech", []string{"legaltech", "legal", "abogado", "jurídico"}},
		{"hrtech", []string{"hrtech", "recursos humanos", "rrhh", "talento", "reclutamiento"}},
		{"martech", []string{"martech", "marketing", "publicidad", "ads"}},
	}

	stageTable = []keywordEntry{
		{"idea", []string{"idea", "concepto", "empezando"}},
		{"mvp", []string{"mvp", "prototipo", "beta"}},
		{"seed", []string{"seed", "semilla", "pre-seed"}},
		{"series_a", []string{"series a", "serie a", "ronda a"}},
		{"growth", []string{"crecimiento", "growth", "escalando", "scale"}},
	}

	lookingForTable = []keywordEntry{
		{"funding", []string{"financiación", "inversión", "capital", "funding"}},
		{"cofounder", []string{"cofundador", "cofounder", "socio fundador"}},
		{"validation", []string{"validación", "feedback", "testear", "probar"}},
		{"customers", []string{"clientes", "customers", "usuarios", "ventas"}},
		{"talent", []string{"talento", "equipo", "contratar", "team"}},
		{"partner", []string{"partner", "alianza", "colaboración"}},
		{"mentor", []string{"mentor", "asesoría", "consejo"}},
	}

	countries = []string{
		"españa", "mexico", "colombia", "argentina", "chile", "peru",
		"spain", "usa", "uk", "brazil", "france", "germany",
	}
)

// RuleClassifier extracts criteria from fixed keyword tables. It never fails.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (RuleClassifier) Classify(_ context.Context, message string) (models.SearchCriteria, error) {
	return ExtractWithRules(message), nil
}

// ExtractWithRules is the deterministic extraction path.
func ExtractWithRules(message string) models.SearchCriteria {
	lower := strings.ToLower(message)
	criteria := models.SearchCriteria{Keywords: []string{}}

	if entry, _, ok := firstMatch(targetTable, lower); ok {
		criteria.TargetType = models.Role(entry)
	}

	if entry, matched, ok := firstMatch(industryTable, lower); ok {
		criteria.Industry = entry
		criteria.Keywords = append(criteria.Keywords, matched...)
	}

	if entry, _, ok := firstMatch(stageTable, lower); ok {
		criteria.Stage = entry
	}

	if entry, matched, ok := firstMatch(lookingForTable, lower); ok {
		criteria.LookingFor = entry
		criteria.Keywords = append(criteria.Keywords, matched...)
	}

	for _, country := range countries {
		if strings.Contains(lower, country) {
			criteria.Location = country
			criteria.Keywords = append(criteria.Keywords, country)
			break
		}
	}

	criteria.Normalize()
	return criteria
}

// firstMatch returns the first entry with a keyword hit, plus every keyword
// of that entry found in text.
func firstMatch(table []keywordEntry, text string) (string, []string, bool) {
	for _, entry := range table {
		var matched []string
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > 0 {
			return entry.value, matched, true
		}
	}
	return "", nil, false
}
