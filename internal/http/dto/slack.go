package dto

import "encoding/json"

// SlackEnvelope is the outer body of every Slack Events API request.
type SlackEnvelope struct {
	Token     string          `json:"token"`
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	EventTime int64           `json:"event_time,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// SlackInnerEventType peeks at the inner event's type before decoding it.
type SlackInnerEventType struct {
	Type string `json:"type"`
}

type SlackChallengeResponse struct {
	Challenge string `json:"challenge"`
}

type SlackEventResponse struct {
	Status  string `json:"status"`
	Dropped string `json:"dropped,omitempty"`
}
