package model

import "time"

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
	PriorityUrgent PriorityLevel = "urgent"
)

// IsUrgent reports whether the level belongs in the urgent queue.
func (p PriorityLevel) IsUrgent() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

type DeliverableStatus string

const (
	DeliverableConcept    DeliverableStatus = "concept"
	DeliverableInProgress DeliverableStatus = "in-progress"
	DeliverableReview     DeliverableStatus = "review"
	DeliverableApproved   DeliverableStatus = "approved"
	DeliverableDelivered  DeliverableStatus = "delivered"
)

// DeliverableStatuses lists every status in lifecycle order.
var DeliverableStatuses = []DeliverableStatus{
	DeliverableConcept,
	DeliverableInProgress,
	DeliverableReview,
	DeliverableApproved,
	DeliverableDelivered,
}

// IsActive reports whether work on the deliverable is still open.
func (s DeliverableStatus) IsActive() bool {
	return s == DeliverableConcept || s == DeliverableInProgress || s == DeliverableReview
}

const DefaultIntentCategory = "update"

// Analysis is the validated interpretation of a message. Every score and
// confidence is present and in range; slices are never nil.
type Analysis struct {
	Sentiment    Sentiment            `json:"sentiment"`
	Intent       Intent               `json:"intent"`
	Priority     Priority             `json:"priority"`
	Entities     []Entity             `json:"entities"`
	Deliverables []DeliverableMention `json:"deliverables"`
	ActionItems  []ActionItemMention  `json:"action_items"`
}

type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Score      float64        `json:"score"`      // [-1, 1]
	Confidence float64        `json:"confidence"` // [0, 1]
}

type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type Intent struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type Priority struct {
	Level   PriorityLevel `json:"level"`
	Reasons []string      `json:"reasons"`
}

// DeliverableMention is one message's statement about a deliverable.
// Mentions with the same Name describe the same deliverable over time.
type DeliverableMention struct {
	Deadline   *time.Time        `json:"deadline,omitempty"`
	Assignee   *string           `json:"assignee,omitempty"`
	Name       string            `json:"name"`
	Status     DeliverableStatus `json:"status"`
	Confidence float64           `json:"confidence"`
}

type ActionItemMention struct {
	Deadline   *time.Time `json:"deadline,omitempty"`
	Assignee   *string    `json:"assignee,omitempty"`
	Task       string     `json:"task"`
	Confidence float64    `json:"confidence"`
}

// EmptyAnalysis is the analysis of a message nothing could be parsed from.
func EmptyAnalysis() Analysis {
	return Analysis{
		Sentiment:    Sentiment{Label: SentimentNeutral},
		Intent:       Intent{Category: DefaultIntentCategory},
		Priority:     Priority{Level: PriorityLow, Reasons: []string{}},
		Entities:     []Entity{},
		Deliverables: []DeliverableMention{},
		ActionItems:  []ActionItemMention{},
	}
}
