package models

import (
	"strings"
	"time"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one entry of a conversation transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the memory kept per conversation id. History is append-only.
type Session struct {
	ID                   string          `json:"id"`
	History              []Message       `json:"history"`
	UserContext          *UserProfile    `json:"userContext,omitempty"`
	SearchPreferences    *SearchCriteria `json:"searchPreferences,omitempty"`
	SuggestedConnections []MatchResult   `json:"suggestedConnections"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:                   id,
		History:              []Message{},
		SuggestedConnections: []MatchResult{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (s *Session) AppendMessage(role, content string, at time.Time) {
	s.History = append(s.History, Message{Role: role, Content: content, Timestamp: at})
	s.UpdatedAt = at
}

// Transcript renders the history one line per message.
func (s *Session) Transcript() string {
	lines := make([]string, 0, len(s.History))
	for _, msg := range s.History {
		speaker := "Asistente"
		if msg.Role == MessageRoleUser {
			speaker = "Usuario"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy so stores never share slices with callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]Message(nil), s.History...)
	if s.UserContext != nil {
		uc := *s.UserContext
		uc.Interests = append(StringList(nil), s.UserContext.Interests...)
		uc.LookingFor = append(StringList(nil), s.UserContext.LookingFor...)
		uc.CanOffer = append(StringList(nil), s.UserContext.CanOffer...)
		out.UserContext = &uc
	}
	if s.SearchPreferences != nil {
		prefs := *s.SearchPreferences
		prefs.Keywords = append([]string(nil), s.SearchPreferences.Keywords...)
		out.SearchPreferences = &prefs
	}
	out.SuggestedConnections = make([]MatchResult, len(s.SuggestedConnections))
	for i, m := range s.SuggestedConnections {
		m.ReasonComponents = append([]string(nil), m.ReasonComponents...)
		m.ConversationStarters = append([]string(nil), m.ConversationStarters...)
		out.SuggestedConnections[i] = m
	}
	return &out
}
