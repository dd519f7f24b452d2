// Package session holds the chat data model and the registry that owns
// every persisted conversation.
package session

import (
	"fmt"
	"time"
)

// Mode is the coarse interaction type of a session.
type Mode string

const (
	ModeAgent Mode = "agent"
	ModeTeam  Mode = "team"
)

// SpeakerUser marks a message typed by the user; any other SpeakerRef is
// the id of the responding agent or team.
const SpeakerUser = "user"

// Message is a single entry in a session log. The JSON shape matches the
// backend's send-message response, so responses pass through unchanged.
type Message struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	SpeakerRef string         `json:"agent_id"`
	SessionID  string         `json:"session_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewUserMessage builds the locally generated message appended before the
// backend round trip.
func NewUserMessage(sessionID, content string) Message {
	now := time.Now()
	return Message{
		ID:         fmt.Sprintf("user-%d", now.UnixMilli()),
		Content:    content,
		SpeakerRef: SpeakerUser,
		SessionID:  sessionID,
		Timestamp:  now,
		Metadata:   map[string]any{},
	}
}

// Session is one conversation: an ordered message log with a mode and
// entity binding fixed at creation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Mode      Mode      `json:"mode"`
	EntityRef string    `json:"entity_ref,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const maxTitleLen = 50

// DeriveTitle truncates the first message content to the default display
// title.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= maxTitleLen {
		return content
	}
	return string(runes[:maxTitleLen]) + "…"
}
