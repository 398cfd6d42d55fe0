package dto

import "github.com/br00kd0wnt0n/LENNYBOT/internal/model"

type ActivityQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type DigestQuery struct {
	Date string `form:"date"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ActivityMessage is the activity feed projection of a stored message.
type ActivityMessage struct {
	Analysis   *model.Analysis `json:"analysis,omitempty"`
	OccurredAt string          `json:"occurred_at"`
	ExternalID string          `json:"external_id"`
	AuthorName string          `json:"author_name"`
	Text       string          `json:"text"`
	ID         int64           `json:"id"`
	Processed  bool            `json:"processed"`
}
