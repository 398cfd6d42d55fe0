package store

import (
	"context"
	"errors"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/rollup"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// MessageStore defines the contract for canonical message data access.
type MessageStore interface {
	// Upsert inserts msg keyed by ExternalID. When the external id already
	// exists the stored row is returned unchanged and created is false.
	Upsert(ctx context.Context, msg *model.Message) (stored *model.Message, created bool, err error)
	// AppendReaction appends to the message with the given external id.
	// Returns ErrNotFound when no such message exists.
	AppendReaction(ctx context.Context, externalID string, reaction model.Reaction) error
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	// ListUnprocessed returns up to limit messages without an analysis that
	// were created before createdBefore. Never-attempted messages come first,
	// oldest first; failed ones follow by the time of their last attempt.
	ListUnprocessed(ctx context.Context, limit int, createdBefore time.Time) ([]model.Message, error)
	// RecordFailedAttempt counts a failed enrichment of an unprocessed message.
	RecordFailedAttempt(ctx context.Context, id int64, at time.Time) error
	UpdateAnalysis(ctx context.Context, id int64, analysis model.Analysis, processedAt time.Time) error
}

// MessageFilter narrows a message listing. Zero values mean no constraint.
type MessageFilter struct {
	ChannelKind  model.ChannelKind
	Since        time.Time
	Until        time.Time
	AnalyzedOnly bool
	// NewestFirst reverses the default oldest-first order.
	NewestFirst bool
	Limit       uint64
	Offset      uint64
}

// RollupStore serves the read queries behind the dashboard views.
type RollupStore interface {
	ListMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error)
	// ChannelActivity groups messages inside w by channel kind.
	ChannelActivity(ctx context.Context, w rollup.Window) ([]rollup.ChannelActivity, error)
}
