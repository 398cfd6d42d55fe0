package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("parses a complete entry", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"message_id":  "42",
				"external_id": "C1/1700000000.000100",
				"trace_id":    "4bf92f3577b34da6a3ce929d0e0e4736",
				"attempt":     "3",
			},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.MessageID).To(Equal(int64(42)))
		Expect(msg.ExternalID).To(Equal("C1/1700000000.000100"))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
		Expect(msg.Attempt).To(Equal(3))
	})

	It("defaults attempt to 1", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID:     "1-0",
			Values: map[string]any{"message_id": "7"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Attempt).To(Equal(1))
		Expect(msg.TraceID).To(BeEmpty())
	})

	It("keeps the raw entry", func() {
		raw := redis.XMessage{ID: "1-0", Values: map[string]any{"message_id": "7"}}

		msg, err := queue.ParseMessage(raw)

		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Raw).To(Equal(raw))
	})

	DescribeTable("rejects malformed entries",
		func(values map[string]any, errSubstring string) {
			_, err := queue.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
			Expect(err).To(MatchError(ContainSubstring(errSubstring)))
		},
		Entry("missing message_id", map[string]any{"attempt": "1"}, "missing message_id"),
		Entry("non-numeric message_id", map[string]any{"message_id": "abc"}, "parsing message_id"),
		Entry("zero message_id", map[string]any{"message_id": "0"}, "invalid message_id"),
		Entry("non-numeric attempt", map[string]any{"message_id": "1", "attempt": "x"}, "parsing attempt"),
	)
})
