package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// UserProfile is a platform member as supplied by the caller. Role is
// normalised on decode; stored labels such as "founder" or "inversores" map
// onto the canonical enum.
type UserProfile struct {
	ID         string     `json:"id" validate:"required"`
	Name       string     `json:"name,omitempty"`
	Role       Role       `json:"role,omitempty"`
	Industry   string     `json:"industry,omitempty"`
	Stage      string     `json:"stage,omitempty"`
	Country    string     `json:"country,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Interests  StringList `json:"interests,omitempty"`
	LookingFor StringList `json:"lookingFor,omitempty"`
	CanOffer   StringList `json:"canOffer,omitempty"`
}

// UnmarshalJSON accepts numeric ids and the legacy userType/user_type keys
// used by the platform's user records.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var aux struct {
		plain
		ID            json.RawMessage `json:"id"`
		UserType      string          `json:"userType"`
		UserTypeSnake string          `json:"user_type"`
		LookingSnake  StringList      `json:"looking_for"`
		CanOfferSnake StringList      `json:"can_offer"`
		FullName      string          `json:"full_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*p = UserProfile(aux.plain)
	p.ID = decodeID(aux.ID)

	if p.Role == "" {
		for _, raw := range []string{aux.UserType, aux.UserTypeSnake} {
			if role, ok := ParseRole(raw); ok {
				p.Role = role
				break
			}
		}
	}
	if len(p.LookingFor) == 0 {
		p.LookingFor = aux.LookingSnake
	}
	if len(p.CanOffer) == 0 {
		p.CanOffer = aux.CanOfferSnake
	}
	if p.Name == "" {
		p.Name = aux.FullName
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// MergeFrom copies the non-empty fields of other onto p.
func (p *UserProfile) MergeFrom(other *UserProfile) {
	if other == nil {
		return
	}
	if other.ID != "" {
		p.ID = other.ID
	}
	if other.Name != "" {
		p.Name = other.Name
	}
	if other.Role != "" {
		p.Role = other.Role
	}
	if other.Industry != "" {
		p.Industry = other.Industry
	}
	if other.Stage != "" {
		p.Stage = other.Stage
	}
	if other.Country != "" {
		p.Country = other.Country
	}
	if other.Bio != "" {
		p.Bio = other.Bio
	}
	if len(other.Interests) > 0 {
		p.Interests = other.Interests
	}
	if len(other.LookingFor) > 0 {
		p.LookingFor = other.LookingFor
	}
	if len(other.CanOffer) > 0 {
		p.CanOffer = other.CanOffer
	}
}

// FirstName is the first word of the name, or "Usuario".
func (p *UserProfile) FirstName() string {
	if fields := strings.Fields(p.Name); len(fields) > 0 {
		return fields[0]
	}
	return "Usuario"
}

// Candidate is a pool entry after role filtering. AIDetected marks a profile
// relabelled by disambiguation; the caller's profile is never modified.
type Candidate struct {
	UserProfile
	AIDetected bool `json:"aiDetected"`
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &c.UserProfile); err != nil {
		return err
	}
	var flags struct {
		AIDetected bool `json:"aiDetected"`
	}
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	c.AIDetected = flags.AIDetected
	return nil
}

// StringList decodes from a JSON array, a single string or null.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// Text joins the entries with spaces for substring matching.
func (l StringList) Text() string {
	return strings.Join(l, " ")
}
