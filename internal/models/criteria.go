package models

// SearchCriteria is what a member is looking for, derived from one message.
// TargetType is always set once Normalize has run.
type SearchCriteria struct {
	TargetType Role     `json:"targetType"`
	Industry   string   `json:"industry,omitempty"`
	Stage      string   `json:"stage,omitempty"`
	Location   string   `json:"location,omitempty"`
	Keywords   []string `json:"keywords"`
	LookingFor string   `json:"lookingFor,omitempty"`
}

// Normalize applies the entrepreneur default and guarantees a non-nil
// keyword list.
func (c *SearchCriteria) Normalize() {
	if !c.TargetType.Valid() {
		c.TargetType = RoleEntrepreneur
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
}

// Merge overlays the non-empty fields of next onto c. Used when session
// preferences accumulate across turns.
func (c SearchCriteria) Merge(next SearchCriteria) SearchCriteria {
	out := c
	if next.TargetType.Valid() {
		out.TargetType = next.TargetType
	}
	if next.Industry != "" {
		out.Industry = next.Industry
	}
	if next.Stage != "" {
		out.Stage = next.Stage
	}
	if next.Location != "" {
		out.Location = next.Location
	}
	if len(next.Keywords) > 0 {
		out.Keywords = append([]string(nil), next.Keywords...)
	}
	if next.LookingFor != "" {
		out.LookingFor = next.LookingFor
	}
	out.Normalize()
	return out
}
