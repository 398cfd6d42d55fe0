package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

type BacklogConfig struct {
	BatchSize int
	// Pacing is the minimum gap between two completion calls.
	Pacing time.Duration
	// MinAge keeps freshly ingested messages out of a sweep while the
	// stream worker is still enriching them.
	MinAge time.Duration
}

// BatchResult summarizes one backlog sweep.
type BatchResult struct {
	Selected int
	Enriched int
	Failed   int
}

// Backlog enriches messages that were never analyzed or whose enrichment
// failed. Messages in a batch are handled strictly one at a time.
type Backlog struct {
	store    BacklogStore
	enricher Enricher
	cfg      BacklogConfig
	limiter  *rate.Limiter
	now      func() time.Time
}

func NewBacklog(store BacklogStore, enricher Enricher, cfg BacklogConfig) *Backlog {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	limit := rate.Inf
	if cfg.Pacing > 0 {
		limit = rate.Every(cfg.Pacing)
	}

	return &Backlog{
		store:    store,
		enricher: enricher,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
	}
}

// ProcessBatch enriches up to BatchSize unprocessed messages. A failure on
// one message is logged and the rest of the batch still runs. Only a store
// read failure or ctx cancellation returns an error.
func (b *Backlog) ProcessBatch(ctx context.Context) (BatchResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pulse.worker.backlog"})

	sc := logger.StartSpan(ctx, "backlog.process_batch")
	defer sc.End()
	ctx = sc.Context()

	var result BatchResult

	pending, err := b.store.ListUnprocessed(ctx, b.cfg.BatchSize, b.now().Add(-b.cfg.MinAge).UTC())
	if err != nil {
		sc.RecordError(err)
		return result, fmt.Errorf("listing unprocessed messages: %w", err)
	}

	result.Selected = len(pending)
	metrics.BacklogBatch.Observe(float64(len(pending)))

	if len(pending) == 0 {
		slog.DebugContext(ctx, "backlog empty")
		return result, nil
	}

	slog.InfoContext(ctx, "processing backlog batch", "count", len(pending))

	for i := range pending {
		if err := b.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("pacing backlog batch: %w", err)
		}

		if err := b.enrichOne(ctx, &pending[i]); err != nil {
			result.Failed++
			slog.WarnContext(ctx, "backlog enrichment failed",
				"error", err,
				"message_id", pending[i].ID,
				"external_id", pending[i].ExternalID)
			b.recordFailure(ctx, pending[i].ID)
			continue
		}
		result.Enriched++
	}

	slog.InfoContext(ctx, "backlog batch complete",
		"selected", result.Selected,
		"enriched", result.Enriched,
		"failed", result.Failed)

	return result, nil
}

func (b *Backlog) enrichOne(ctx context.Context, msg *model.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	_, err = b.enricher.Enrich(ctx, msg)
	return err
}

// recordFailure moves a failed message behind the rest of the backlog.
func (b *Backlog) recordFailure(ctx context.Context, id int64) {
	if err := b.store.RecordFailedAttempt(ctx, id, b.now().UTC()); err != nil {
		slog.ErrorContext(ctx, "recording failed attempt", "error", err, "message_id", id)
	}
}
