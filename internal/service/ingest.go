package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/br00kd0wnt0n/LENNYBOT/common/id"
	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/ingest"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
)

type IngestResult struct {
	Message  *model.Message
	Dropped  ingest.DropReason
	Created  bool
	Enqueued bool
}

// IngestService stores inbound chat events. Dropped events are reported
// in the result, never as errors.
type IngestService interface {
	HandleMessage(ctx context.Context, evt ingest.MessageEvent) (*IngestResult, error)
	HandleReaction(ctx context.Context, evt ingest.ReactionEvent) error
}

type ingestService struct {
	messages   store.MessageStore
	normalizer *ingest.Normalizer
	queue      queue.Producer
	logger     *slog.Logger
}

func NewIngestService(messages store.MessageStore, normalizer *ingest.Normalizer, producer queue.Producer, logger *slog.Logger) IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		messages:   messages,
		normalizer: normalizer,
		queue:      producer,
		logger:     logger,
	}
}

func (s *ingestService) HandleMessage(ctx context.Context, evt ingest.MessageEvent) (*IngestResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: logger.Ptr("message"),
		Component: "pulse.ingest",
	})

	msg, reason := s.normalizer.Normalize(ctx, evt)
	if reason != ingest.Accepted {
		metrics.IngestDrops.WithLabelValues(string(reason)).Inc()
		s.logger.DebugContext(ctx, "message dropped", "reason", reason, "channel_id", evt.Channel, "subtype", evt.Subtype)
		return &IngestResult{Dropped: reason}, nil
	}

	msg.ID = id.New()
	stored, created, err := s.messages.Upsert(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("storing message %s: %w", msg.ExternalID, err)
	}
	metrics.IngestStored.WithLabelValues(strconv.FormatBool(created)).Inc()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:   logger.Ptr(stored.ID),
		ExternalID:  logger.Ptr(stored.ExternalID),
		ChannelKind: logger.Ptr(string(stored.ChannelKind)),
	})

	if !created {
		s.logger.InfoContext(ctx, "duplicate message deduped")
		return &IngestResult{Message: stored}, nil
	}

	s.logger.InfoContext(ctx, "message stored", "author_name", stored.AuthorName)

	enqueued := true
	if err := s.queue.Enqueue(ctx, queue.EnrichTask{
		MessageID:  stored.ID,
		ExternalID: stored.ExternalID,
		TraceID:    logger.TraceID(ctx),
		Attempt:    1,
	}); err != nil {
		// The row is unprocessed, so the backlog sweep will pick it up.
		enqueued = false
		s.logger.WarnContext(ctx, "enqueueing enrichment failed", "error", err)
	}

	return &IngestResult{Message: stored, Created: true, Enqueued: enqueued}, nil
}

func (s *ingestService) HandleReaction(ctx context.Context, evt ingest.ReactionEvent) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: logger.Ptr("reaction_added"),
		Component: "pulse.ingest",
	})

	externalID, reaction, reason := s.normalizer.NormalizeReaction(evt)
	if reason != ingest.Accepted {
		metrics.IngestDrops.WithLabelValues(string(reason)).Inc()
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{ExternalID: logger.Ptr(externalID)})

	if err := s.messages.AppendReaction(ctx, externalID, reaction); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.DebugContext(ctx, "reaction for unknown message dropped", "emoji", reaction.Emoji)
			return nil
		}
		return fmt.Errorf("appending reaction to %s: %w", externalID, err)
	}

	s.logger.DebugContext(ctx, "reaction added", "emoji", reaction.Emoji)
	return nil
}
