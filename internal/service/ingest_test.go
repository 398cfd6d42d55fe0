package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/core/config"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/ingest"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/service"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
)

var _ = Describe("IngestService", func() {
	var (
		ctx      context.Context
		messages *mockMessageStore
		producer *mockProducer
		svc      service.IngestService
		evt      ingest.MessageEvent
	)

	BeforeEach(func() {
		ctx = context.Background()
		messages = &mockMessageStore{}
		producer = &mockProducer{}
		normalizer := ingest.NewNormalizer(config.ChannelsConfig{ByID: map[string]string{"C1": "main"}}, &mockDirectory{})
		svc = service.NewIngestService(messages, normalizer, producer, nil)
		evt = ingest.MessageEvent{
			Type:    "message",
			Channel: "C1",
			User:    "U1",
			Text:    "Kickoff moved to Thursday",
			TS:      "1700000000.000100",
		}
	})

	Describe("HandleMessage", func() {
		It("stores a new message and enqueues it for enrichment", func() {
			result, err := svc.HandleMessage(ctx, evt)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Created).To(BeTrue())
			Expect(result.Enqueued).To(BeTrue())
			Expect(result.Message.ID).NotTo(BeZero())
			Expect(result.Message.AuthorName).To(Equal("Sam Rivera"))
			Expect(producer.tasks).To(HaveLen(1))
			Expect(producer.tasks[0].MessageID).To(Equal(result.Message.ID))
			Expect(producer.tasks[0].ExternalID).To(Equal("C1/1700000000.000100"))
			Expect(producer.tasks[0].Attempt).To(Equal(1))
		})

		It("does not enqueue a re-delivered message", func() {
			existing := &model.Message{ID: 7, ExternalID: "C1/1700000000.000100"}
			messages.upsertFn = func(context.Context, *model.Message) (*model.Message, bool, error) {
				return existing, false, nil
			}

			result, err := svc.HandleMessage(ctx, evt)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Created).To(BeFalse())
			Expect(result.Message).To(Equal(existing))
			Expect(producer.tasks).To(BeEmpty())
		})

		It("keeps the stored message when enqueueing fails", func() {
			producer.enqueueFn = func(context.Context, queue.EnrichTask) error {
				return errors.New("redis unavailable")
			}

			result, err := svc.HandleMessage(ctx, evt)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Created).To(BeTrue())
			Expect(result.Enqueued).To(BeFalse())
		})

		It("reports dropped events without touching the store", func() {
			evt.Channel = "C9"

			result, err := svc.HandleMessage(ctx, evt)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Dropped).To(Equal(ingest.DropUnmonitored))
			Expect(messages.upsertCalls).To(BeZero())
			Expect(producer.tasks).To(BeEmpty())
		})

		It("returns store failures", func() {
			messages.upsertFn = func(context.Context, *model.Message) (*model.Message, bool, error) {
				return nil, false, errors.New("connection refused")
			}

			_, err := svc.HandleMessage(ctx, evt)

			Expect(err).To(MatchError(ContainSubstring("storing message C1/1700000000.000100")))
		})
	})

	Describe("HandleReaction", func() {
		var reaction ingest.ReactionEvent

		BeforeEach(func() {
			reaction = ingest.ReactionEvent{
				User:     "U2",
				Reaction: "eyes",
				Item:     ingest.ReactionItem{Type: "message", Channel: "C1", TS: "1700000000.000100"},
				EventTS:  "1700000100.000000",
			}
		})

		It("appends the reaction to the matching message", func() {
			var gotID string
			var got model.Reaction
			messages.appendReactionFn = func(_ context.Context, externalID string, r model.Reaction) error {
				gotID, got = externalID, r
				return nil
			}

			Expect(svc.HandleReaction(ctx, reaction)).To(Succeed())
			Expect(gotID).To(Equal("C1/1700000000.000100"))
			Expect(got.Emoji).To(Equal("eyes"))
			Expect(got.UserID).To(Equal("U2"))
		})

		It("drops reactions to unknown messages", func() {
			messages.appendReactionFn = func(context.Context, string, model.Reaction) error {
				return store.ErrNotFound
			}

			Expect(svc.HandleReaction(ctx, reaction)).To(Succeed())
		})

		It("returns other store failures", func() {
			messages.appendReactionFn = func(context.Context, string, model.Reaction) error {
				return errors.New("deadlock detected")
			}

			Expect(svc.HandleReaction(ctx, reaction)).To(MatchError(ContainSubstring("appending reaction")))
		})
	})
})
