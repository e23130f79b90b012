package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// Role is the closed set of member types the connector matches on. The zero
// value means the stored label could not be resolved.
type Role string

const (
	RoleEntrepreneur Role = "entrepreneur"
	RoleInvestor     Role = "investor"
	RoleValidator    Role = "validator"
	RolePartner      Role = "partner"
	RoleMentor       Role = "mentor"
)

// AllRoles lists the canonical roles in display order.
var AllRoles = []Role{RoleEntrepreneur, RoleInvestor, RoleValidator, RolePartner, RoleMentor}

// roleSynonyms is the single synonym table used at every boundary.
var roleSynonyms = map[string]Role{
	"entrepreneur":    RoleEntrepreneur,
	"entrepreneurs":   RoleEntrepreneur,
	"emprendedor":     RoleEntrepreneur,
	"emprendedora":    RoleEntrepreneur,
	"emprendedores":   RoleEntrepreneur,
	"founder":         RoleEntrepreneur,
	"founders":        RoleEntrepreneur,
	"startup founder": RoleEntrepreneur,
	"investor":        RoleInvestor,
	"investors":       RoleInvestor,
	"inversor":        RoleInvestor,
	"inversora":       RoleInvestor,
	"inversores":      RoleInvestor,
	"validator":       RoleValidator,
	"validators":      RoleValidator,
	"validador":       RoleValidator,
	"validadora":      RoleValidator,
	"validadores":     RoleValidator,
	"partner":         RolePartner,
	"partners":        RolePartner,
	"mentor":          RoleMentor,
	"mentors":         RoleMentor,
	"mentora":         RoleMentor,
	"mentores":        RoleMentor,
}

var roleLabels = map[Role]string{
	RoleEntrepreneur: "Emprendedor",
	RoleInvestor:     "Inversor",
	RoleValidator:    "Validador",
	RolePartner:      "Partner",
	RoleMentor:       "Mentor",
}

var rolePlurals = map[Role]string{
	RoleEntrepreneur: "emprendedores",
	RoleInvestor:     "inversores",
	RoleValidator:    "validadores",
	RolePartner:      "partners",
	RoleMentor:       "mentores",
}

// ParseRole resolves a free-form label (any case, surrounding spaces) to its
// canonical role.
func ParseRole(raw string) (Role, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	role, ok := roleSynonyms[key]
	return role, ok
}

// NormalizeTarget resolves a search target, defaulting to entrepreneur.
func NormalizeTarget(raw string) Role {
	if role, ok := ParseRole(raw); ok {
		return role
	}
	return RoleEntrepreneur
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label is the capitalised Spanish display name.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return "Usuario"
}

func (r Role) Plural() string {
	if plural, ok := rolePlurals[r]; ok {
		return plural
	}
	return "usuarios"
}

// SynonymsFor returns every stored label that resolves to role, sorted for
// stable query parameters.
func SynonymsFor(role Role) []string {
	out := make([]string, 0, 6)
	for label, r := range roleSynonyms {
		if r == role {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, _ := ParseRole(raw)
	*r = parsed
	return nil
}
