package worker

import (
	"context"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
}

// MessageLoader loads the stored message a stream entry points at.
type MessageLoader interface {
	GetByID(ctx context.Context, id int64) (*model.Message, error)
}

// BacklogStore selects messages still waiting for an analysis and records
// the ones a sweep failed to enrich.
type BacklogStore interface {
	ListUnprocessed(ctx context.Context, limit int, createdBefore time.Time) ([]model.Message, error)
	RecordFailedAttempt(ctx context.Context, id int64, at time.Time) error
}

// Enricher abstracts the enrichment pipeline for testability.
type Enricher interface {
	Enrich(ctx context.Context, msg *model.Message) (*model.Analysis, error)
}
