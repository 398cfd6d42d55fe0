package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, task EnrichTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task EnrichTask) error {
	values := taskValues(task)

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue enrich task: %w", err)
	}

	p.logger.DebugContext(ctx, "enqueued enrich task",
		"message_id", task.MessageID,
		"external_id", task.ExternalID,
		"attempt", values[fieldAttempt])
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
