package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Message is a single inbound chat event, normalized away from the
// transport's own update shape.
type Message struct {
	ID         int
	ChatID     int64
	UserID     int64
	Username   string
	Text       string
	IsGroup    bool
	IsFromSelf bool
	Raw        any
}

// UserKey returns the session-store participant key for the sender.
func (m *Message) UserKey() string {
	return strconv.FormatInt(m.UserID, 10)
}

type Action string

const (
	Typing    Action = "typing"
	Available Action = "available"
)

// Session is one participant's active feature state within a conversation.
// At most one session exists per (chat, participant key) at any time.
type Session struct {
	ChatID         int64
	UserKey        string
	Kind           string
	Payload        json.RawMessage
	LastActivityAt time.Time
}

// Expired reports whether the session has been inactive longer than ttl.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.LastActivityAt) > ttl
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

type Category string

const (
	CategoryGame    Category = "game"
	CategoryGeneral Category = "general"
	CategoryAdmin   Category = "admin"
	CategoryUtility Category = "utility"
)

// RankedStat is one leaderboard row.
type RankedStat struct {
	UserKey  string
	Username string
	Game     string
	Score    int
}

// UsageCount is an aggregate usage-statistics row.
type UsageCount struct {
	Command string
	UserKey string
	Count   int
}

type Author string

const (
	User   Author = "user"
	System Author = "system"
)

// Prompt is one turn of an LLM conversation.
type Prompt struct {
	Prompt string
	Author Author
}
