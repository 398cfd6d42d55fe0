package worker_test

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
)

type mockConsumer struct {
	mu     sync.Mutex
	readFn func(ctx context.Context) ([]queue.Message, error)
	ackFn  func(ctx context.Context, msg queue.Message) error
	acked  []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
	}
	return nil, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.mu.Lock()
	m.acked = append(m.acked, msg.ID)
	m.mu.Unlock()
	if m.ackFn != nil {
		return m.ackFn(ctx, msg)
	}
	return nil
}

func (m *mockConsumer) Acked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

type mockMessageLoader struct {
	getByIDFn func(ctx context.Context, id int64) (*model.Message, error)
}

func (m *mockMessageLoader) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	return m.getByIDFn(ctx, id)
}

type mockBacklogStore struct {
	listFn        func(ctx context.Context, limit int) ([]model.Message, error)
	lastLimit     int
	lastBefore    time.Time
	failedIDs     []int64
	recordFailure error
}

func (m *mockBacklogStore) ListUnprocessed(ctx context.Context, limit int, createdBefore time.Time) ([]model.Message, error) {
	m.lastLimit = limit
	m.lastBefore = createdBefore
	return m.listFn(ctx, limit)
}

func (m *mockBacklogStore) RecordFailedAttempt(_ context.Context, id int64, _ time.Time) error {
	m.failedIDs = append(m.failedIDs, id)
	return m.recordFailure
}

type mockEnricher struct {
	mu       sync.Mutex
	enrichFn func(ctx context.Context, msg *model.Message) (*model.Analysis, error)
	calls    []int64
	callAt   []time.Time
}

func (m *mockEnricher) Enrich(ctx context.Context, msg *model.Message) (*model.Analysis, error) {
	m.mu.Lock()
	m.calls = append(m.calls, msg.ID)
	m.callAt = append(m.callAt, time.Now())
	m.mu.Unlock()
	if m.enrichFn != nil {
		return m.enrichFn(ctx, msg)
	}
	a := model.EmptyAnalysis()
	return &a, nil
}

type deadLetter struct {
	ID     string
	Reason string
}

type mockStaleQueue struct {
	staleFn     func(ctx context.Context, minIdle time.Duration, count int64) ([]queue.Pending, error)
	entries     map[string]redis.XMessage
	claimFn     func(ctx context.Context, claimer string, minIdle time.Duration, id string) (redis.XMessage, bool, error)
	claimedBy   []string
	deadLetters []deadLetter
}

func (m *mockStaleQueue) Stale(ctx context.Context, minIdle time.Duration, count int64) ([]queue.Pending, error) {
	if m.staleFn != nil {
		return m.staleFn(ctx, minIdle, count)
	}
	return nil, nil
}

func (m *mockStaleQueue) Claim(ctx context.Context, claimer string, minIdle time.Duration, id string) (redis.XMessage, bool, error) {
	m.claimedBy = append(m.claimedBy, claimer)
	if m.claimFn != nil {
		return m.claimFn(ctx, claimer, minIdle, id)
	}
	entry, ok := m.entries[id]
	return entry, ok, nil
}

func (m *mockStaleQueue) SendDLQ(_ context.Context, msg queue.Message, errMsg string) error {
	m.deadLetters = append(m.deadLetters, deadLetter{ID: msg.ID, Reason: errMsg})
	return nil
}
