package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/worker"
)

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		consumer *mockConsumer
		loader   *mockMessageLoader
		enricher *mockEnricher
		w        *worker.Worker
		entry    queue.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		enricher = &mockEnricher{}
		loader = &mockMessageLoader{
			getByIDFn: func(_ context.Context, id int64) (*model.Message, error) {
				return &model.Message{ID: id, ExternalID: "C1/1700000000.000100"}, nil
			},
		}
		w = worker.New(consumer, loader, enricher)
		entry = queue.Message{ID: "1700000000000-0", MessageID: 42, Attempt: 1}
	})

	Describe("ProcessMessage", func() {
		It("enriches the stored message and acknowledges the entry", func() {
			err := w.ProcessMessage(ctx, entry)

			Expect(err).NotTo(HaveOccurred())
			Expect(enricher.calls).To(Equal([]int64{42}))
			Expect(consumer.Acked()).To(Equal([]string{"1700000000000-0"}))
		})

		It("skips messages that are already processed", func() {
			loader.getByIDFn = func(_ context.Context, id int64) (*model.Message, error) {
				return &model.Message{ID: id, Processed: true}, nil
			}

			err := w.ProcessMessage(ctx, entry)

			Expect(err).NotTo(HaveOccurred())
			Expect(enricher.calls).To(BeEmpty())
			Expect(consumer.Acked()).To(HaveLen(1))
		})

		It("skips entries whose message was removed", func() {
			loader.getByIDFn = func(context.Context, int64) (*model.Message, error) {
				return nil, store.ErrNotFound
			}

			Expect(w.ProcessMessage(ctx, entry)).To(Succeed())
			Expect(enricher.calls).To(BeEmpty())
			Expect(consumer.Acked()).To(HaveLen(1))
		})

		It("acknowledges even when enrichment fails", func() {
			enricher.enrichFn = func(context.Context, *model.Message) (*model.Analysis, error) {
				return nil, errors.New("completion unavailable")
			}

			err := w.ProcessMessage(ctx, entry)

			Expect(err).To(MatchError(ContainSubstring("completion unavailable")))
			Expect(consumer.Acked()).To(Equal([]string{"1700000000000-0"}))
		})

		It("returns store read failures and still acknowledges", func() {
			loader.getByIDFn = func(context.Context, int64) (*model.Message, error) {
				return nil, errors.New("connection reset")
			}

			err := w.ProcessMessage(ctx, entry)

			Expect(err).To(MatchError(ContainSubstring("loading message")))
			Expect(consumer.Acked()).To(HaveLen(1))
		})

		It("recovers from a panicking enricher", func() {
			enricher.enrichFn = func(context.Context, *model.Message) (*model.Analysis, error) {
				panic("boom")
			}

			err := w.ProcessMessage(ctx, entry)

			Expect(err).To(MatchError(ContainSubstring("panic: boom")))
			Expect(consumer.Acked()).To(HaveLen(1))
		})

		It("does not fail when the ACK fails", func() {
			consumer.ackFn = func(context.Context, queue.Message) error {
				return errors.New("redis down")
			}

			Expect(w.ProcessMessage(ctx, entry)).To(Succeed())
		})
	})

	Describe("Run", func() {
		It("processes every entry read and stops cleanly", func() {
			delivered := false
			consumer.readFn = func(ctx context.Context) ([]queue.Message, error) {
				if !delivered {
					delivered = true
					return []queue.Message{
						{ID: "1-0", MessageID: 1},
						{ID: "2-0", MessageID: 2},
					}, nil
				}
				<-ctx.Done()
				return nil, ctx.Err()
			}

			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- w.Run(runCtx) }()

			Eventually(consumer.Acked).Should(Equal([]string{"1-0", "2-0"}))
			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
