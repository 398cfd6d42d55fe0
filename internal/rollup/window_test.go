package rollup_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/rollup"
)

var _ = Describe("windows", func() {
	now := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	It("starts today's window at local midnight", func() {
		loc := time.FixedZone("UTC-5", -5*3600)
		w := rollup.TodayWindow(now, loc)
		Expect(w.Since).To(BeTemporally("==", time.Date(2024, 1, 15, 5, 0, 0, 0, time.UTC)))
		Expect(w.Until).To(Equal(now))
	})

	It("keeps the trailing window at exactly 24 hours", func() {
		w := rollup.TrailingDayWindow(now)
		Expect(w.Until.Sub(w.Since)).To(Equal(24 * time.Hour))
		Expect(w.Contains(now.Add(-23 * time.Hour))).To(BeTrue())
		Expect(w.Contains(now.Add(-25 * time.Hour))).To(BeFalse())
	})

	It("covers a whole calendar day", func() {
		w := rollup.CalendarDayWindow(now, time.UTC)
		Expect(w.Contains(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))).To(BeTrue())
		Expect(w.Contains(time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC))).To(BeTrue())
		Expect(w.Contains(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC))).To(BeFalse())
	})
})

var _ = Describe("Digest", func() {
	It("summarizes each channel kind for the day", func() {
		w := rollup.CalendarDayWindow(day, time.UTC)
		digest := rollup.Digest([]model.Message{
			analyzed(1, at(9, 0), channel(model.ChannelKindProduction), author("Sam"),
				mention("Logo", model.DeliverableReview, "Sam")),
			analyzed(2, at(10, 0), channel(model.ChannelKindProduction), author("Ana"),
				priority(model.PriorityUrgent)),
			{ID: 3, ChannelKind: model.ChannelKindProduction, AuthorName: "Bo", OccurredAt: at(11, 0)},
			analyzed(4, day.Add(-time.Hour), channel(model.ChannelKindProduction), author("Old"),
				mention("Deck", model.DeliverableConcept, "")),
		}, w)

		Expect(digest).To(HaveLen(3))
		production := digest[1]
		Expect(production.ChannelKind).To(Equal(model.ChannelKindProduction))
		Expect(production.MessageCount).To(Equal(3))
		Expect(production.UniqueUsers).To(Equal(3))
		Expect(production.DeliverableUpdates).To(HaveLen(1))
		Expect(production.DeliverableUpdates[0].Name).To(Equal("Logo"))
		Expect(production.DeliverableUpdates[0].AuthorName).To(Equal("Sam"))
		Expect(production.UrgentItems).To(HaveLen(1))
		Expect(production.UrgentItems[0].MessageID).To(Equal(int64(2)))

		Expect(digest[0].MessageCount).To(BeZero())
		Expect(digest[0].DeliverableUpdates).To(BeEmpty())
	})
})
