package model

import (
	"encoding/json"
	"time"
)

type ChannelKind string

const (
	ChannelKindMain       ChannelKind = "main"
	ChannelKindProduction ChannelKind = "production"
	ChannelKindClient     ChannelKind = "client"
)

// ChannelKinds lists every kind in display order.
var ChannelKinds = []ChannelKind{ChannelKindMain, ChannelKindProduction, ChannelKindClient}

func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelKindMain, ChannelKindProduction, ChannelKindClient:
		return true
	}
	return false
}

// Message is the canonical record of one chat message. Everything except
// Reactions and the analysis columns is fixed at creation.
type Message struct {
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	OccurredAt  time.Time       `json:"occurred_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	ThreadID    *string         `json:"thread_id,omitempty"`
	Analysis    *Analysis       `json:"analysis,omitempty"`
	Profile     json.RawMessage `json:"profile,omitempty"`
	Attachments []Attachment    `json:"attachments"`
	Reactions   []Reaction      `json:"reactions"`
	ExternalID  string          `json:"external_id"`
	ChannelID   string          `json:"channel_id"`
	ChannelKind ChannelKind     `json:"channel_kind"`
	AuthorID    string          `json:"author_id"`
	AuthorName  string          `json:"author_name"`
	Text        string          `json:"text"`
	ID          int64           `json:"id"`
	IsBot       bool            `json:"is_bot"`
	Processed   bool            `json:"processed"`
}

type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type Reaction struct {
	At     time.Time `json:"at"`
	Emoji  string    `json:"emoji"`
	UserID string    `json:"user_id"`
}
