package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
)

// Worker enriches messages announced on the stream. Every entry is
// acknowledged whatever the outcome: a message that failed enrichment
// stays unprocessed and the backlog sweep retries it.
type Worker struct {
	consumer Consumer
	messages MessageLoader
	enricher Enricher

	// errBackoff is the pause after a failed stream read.
	errBackoff time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, messages MessageLoader, enricher Enricher) *Worker {
	return &Worker{
		consumer:   consumer,
		messages:   messages,
		enricher:   enricher,
		errBackoff: time.Second,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "pulse.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-time.After(w.errBackoff):
				case <-ctx.Done():
				case <-w.stopCh:
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.ProcessMessage(ctx, msg); err != nil {
			slog.WarnContext(ctx, "enrichment failed, leaving message for backlog sweep",
				"error", err,
				"stream_message_id", msg.ID,
				"message_id", msg.MessageID)
		}
	}

	return nil
}

// ProcessMessage enriches the message behind msg and acknowledges the entry.
// Exported so it can be reused by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) (err error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:       logger.Ptr(msg.MessageID),
		StreamMessageID: logger.Ptr(msg.ID),
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message")
	defer sc.End()
	ctx = sc.Context()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			sc.RecordError(err)
		}
		if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
			// The reclaimer will hand it back; enrichment skips processed rows.
			slog.WarnContext(ctx, "failed to ACK message", "error", ackErr)
		}
	}()

	return w.enrichStored(ctx, msg)
}

func (w *Worker) enrichStored(ctx context.Context, msg queue.Message) error {
	slog.DebugContext(ctx, "processing message", "attempt", msg.Attempt)

	stored, err := w.messages.GetByID(ctx, msg.MessageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "message no longer stored, skipping")
			metrics.Enrichments.WithLabelValues(metrics.OutcomeSkipped).Inc()
			return nil
		}
		return fmt.Errorf("loading message: %w", err)
	}

	if stored.Processed {
		slog.DebugContext(ctx, "message already enriched, skipping")
		metrics.Enrichments.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}

	if _, err := w.enricher.Enrich(ctx, stored); err != nil {
		return err
	}
	return nil
}
