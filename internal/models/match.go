package models

import "strings"

// DefaultReason is used when a match carries no reason components.
const DefaultReason = "Perfil relevante para conectar"

// MatchResult is one scored candidate as exposed to the caller.
type MatchResult struct {
	CandidateID          string   `json:"candidateId"`
	Name                 string   `json:"name"`
	Score                int      `json:"score"`
	ReasonComponents     []string `json:"reasonComponents"`
	Reason               string   `json:"reason"`
	Role                 Role     `json:"role"`
	RoleLabel            string   `json:"roleLabel"`
	Industry             string   `json:"industry,omitempty"`
	Stage                string   `json:"stage,omitempty"`
	Country              string   `json:"country,omitempty"`
	AIDetected           bool     `json:"aiDetected"`
	ConversationStarters []string `json:"conversationStarters"`
}

// JoinReasons renders reason components for channels without list support.
func JoinReasons(components []string) string {
	if len(components) == 0 {
		return DefaultReason
	}
	return strings.Join(components, " • ")
}
