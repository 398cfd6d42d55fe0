package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
)

// StaleQueue is the part of the consumer group the reclaimer needs.
type StaleQueue interface {
	Stale(ctx context.Context, minIdle time.Duration, count int64) ([]queue.Pending, error)
	Claim(ctx context.Context, claimer string, minIdle time.Duration, id string) (redis.XMessage, bool, error)
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

type ReclaimerConfig struct {
	// Consumer is the name claimed entries are moved to.
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
	// MaxDeliveries dead-letters an entry that has already been delivered
	// this many times. Zero disables the limit.
	MaxDeliveries int64
}

// ReclaimResult counts what one pass did with the stale entries it found.
type ReclaimResult struct {
	Found        int
	Processed    int
	DeadLettered int
	Failed       int
}

// Reclaimer re-runs enrichment for stream entries a crashed worker left
// unacknowledged. Entries that keep crashing workers are dead-lettered.
type Reclaimer struct {
	queue     StaleQueue
	cfg       ReclaimerConfig
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(q StaleQueue, cfg ReclaimerConfig, processor queue.MessageProcessor) *Reclaimer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Reclaimer{
		queue:     q,
		cfg:       cfg,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run blocks until Stop is called or ctx is done.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "pulse.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"max_deliveries", r.cfg.MaxDeliveries)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if _, err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim pass failed", "error", err)
			}
		}
	}
}

func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce claims up to BatchSize stale entries and handles each one.
// Only listing the pending entries can fail the pass.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) (ReclaimResult, error) {
	var result ReclaimResult

	stale, err := r.queue.Stale(ctx, r.cfg.MinIdle, r.cfg.BatchSize)
	if err != nil {
		return result, fmt.Errorf("listing stale entries: %w", err)
	}
	result.Found = len(stale)
	if len(stale) == 0 {
		return result, nil
	}

	slog.InfoContext(ctx, "found stale stream entries", "count", len(stale))

	for _, p := range stale {
		entryCtx := logger.WithLogFields(ctx, logger.LogFields{StreamMessageID: logger.Ptr(p.ID)})
		outcome, err := r.reclaim(entryCtx, p)
		if err != nil {
			result.Failed++
			slog.ErrorContext(entryCtx, "failed to reclaim stream entry",
				"error", err,
				"previous_consumer", p.Consumer,
				"idle", p.Idle,
				"deliveries", p.Deliveries)
			continue
		}
		switch outcome {
		case reclaimProcessed:
			result.Processed++
		case reclaimDeadLettered:
			result.DeadLettered++
		}
	}

	return result, nil
}

type reclaimOutcome int

const (
	reclaimSkipped reclaimOutcome = iota
	reclaimProcessed
	reclaimDeadLettered
)

func (r *Reclaimer) reclaim(ctx context.Context, p queue.Pending) (reclaimOutcome, error) {
	raw, ok, err := r.queue.Claim(ctx, r.cfg.Consumer, r.cfg.MinIdle, p.ID)
	if err != nil {
		return reclaimSkipped, err
	}
	if !ok {
		slog.DebugContext(ctx, "stream entry already claimed elsewhere")
		return reclaimSkipped, nil
	}

	msg, err := queue.ParseMessage(raw)
	if err != nil {
		return r.deadLetter(ctx, queue.Message{ID: raw.ID, Raw: raw}, err.Error())
	}

	if r.cfg.MaxDeliveries > 0 && p.Deliveries >= r.cfg.MaxDeliveries {
		return r.deadLetter(ctx, msg, fmt.Sprintf("abandoned after %d deliveries", p.Deliveries))
	}

	slog.InfoContext(ctx, "re-running enrichment for stale entry",
		"message_id", msg.MessageID,
		"previous_consumer", p.Consumer,
		"deliveries", p.Deliveries)

	if err := r.processor(ctx, msg); err != nil {
		return reclaimSkipped, fmt.Errorf("processing reclaimed entry: %w", err)
	}
	return reclaimProcessed, nil
}

func (r *Reclaimer) deadLetter(ctx context.Context, msg queue.Message, reason string) (reclaimOutcome, error) {
	if err := r.queue.SendDLQ(ctx, msg, reason); err != nil {
		return reclaimSkipped, fmt.Errorf("dead-lettering stream entry: %w", err)
	}
	metrics.Enrichments.WithLabelValues(metrics.OutcomeDeadLettered).Inc()
	return reclaimDeadLettered, nil
}
