package enrich_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/enrich"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

var _ = Describe("Parser", func() {
	var parser *enrich.Parser

	BeforeEach(func() {
		parser = enrich.NewParser()
	})

	Context("with strict JSON", func() {
		It("returns every field without recovery", func() {
			draft, diag := parser.Parse(`{
				"sentiment": {"score": -0.4, "label": "negative", "confidence": 0.9},
				"entities": [{"type": "client", "value": "Acme", "confidence": 0.8}],
				"intent": {"category": "concern", "confidence": 0.7},
				"priority": {"level": "high", "reasons": ["deadline at risk"]},
				"deliverables": [{"name": "Logo v2", "status": "review"}],
				"actionItems": [{"task": "send revised logo", "assignee": "Sam"}]
			}`)

			Expect(diag.TopLevel).To(Equal(enrich.StageStrict))
			Expect(diag.HasFailures()).To(BeFalse())
			Expect(draft.Sentiment).To(HaveKeyWithValue("label", "negative"))
			Expect(draft.Entities).To(HaveLen(1))
			Expect(draft.Deliverables).To(HaveLen(1))
			Expect(draft.ActionItems[0]).To(HaveKeyWithValue("assignee", "Sam"))
			Expect(diag.Fields).To(HaveKeyWithValue(enrich.FieldDeliverables, enrich.StageStrict))
		})

		It("recovers array fields that arrive as strings", func() {
			draft, diag := parser.Parse(`{"deliverables": "{name: 'Logo v2', status: 'review'}"}`)

			Expect(diag.TopLevel).To(Equal(enrich.StageStrict))
			Expect(draft.Deliverables).To(HaveLen(1))
			Expect(draft.Deliverables[0]).To(HaveKeyWithValue("name", "Logo v2"))
			Expect(diag.Fields[enrich.FieldDeliverables]).NotTo(Equal(enrich.StageFailed))
		})

		It("drops array entries that are not objects", func() {
			draft, _ := parser.Parse(`{"entities": ["x", 3, null, {"type": "person", "value": "Dana"}]}`)
			Expect(draft.Entities).To(HaveLen(1))
			Expect(draft.Entities[0]).To(HaveKeyWithValue("value", "Dana"))
		})
	})

	Context("with near-JSON", func() {
		It("recovers a sentiment object with unquoted keys and single quotes", func() {
			var draft enrich.Draft
			Expect(func() {
				draft, _ = parser.Parse(`{sentiment:{score:0.5,label:'positive',confidence:0.8}}`)
			}).NotTo(Panic())

			analysis := enrich.Validate(draft)
			Expect(analysis.Sentiment).To(Equal(model.Sentiment{
				Score:      0.5,
				Label:      model.SentimentPositive,
				Confidence: 0.8,
			}))
		})

		It("recovers each field on its own when the whole object is broken", func() {
			draft, diag := parser.Parse(`{"sentiment": {"score": 0.4, "label": "positive"},
				"deliverables": [{"name": "A", "status": "review"}, {"name": "B" "status": "concept"}],
				"intent": {"category": "request"`)

			Expect(diag.TopLevel).To(Equal(enrich.StageFailed))
			Expect(draft.Sentiment).To(HaveKeyWithValue("score", 0.4))

			Expect(draft.Deliverables).To(HaveLen(1))
			Expect(draft.Deliverables[0]).To(HaveKeyWithValue("name", "A"))
			Expect(diag.Fields).To(HaveKeyWithValue(enrich.FieldDeliverables, enrich.StageFragments))

			Expect(draft.Intent).To(BeNil())
			Expect(diag.Failures).To(HaveLen(1))
			Expect(diag.Failures[0].Field).To(Equal(enrich.FieldIntent))
			Expect(diag.Failures[0].Raw).To(Equal(`{"category": "request"`))
			Expect(diag.Failures[0].Reasons).To(HaveLen(3))
		})
	})

	Context("with a broken object whose values mention field names", func() {
		It("recovers the field from its key, not from a string value", func() {
			draft, diag := parser.Parse(`{"entities": [{"type": "deadline", "value": "priority: ship by Friday"}],
				"priority": {"level": "urgent", "reasons": ["client escalation"]},
				"intent": {"category": "request" "confidence": 0.6`)

			Expect(diag.TopLevel).To(Equal(enrich.StageFailed))
			Expect(diag.Fields).To(HaveKeyWithValue(enrich.FieldPriority, enrich.StageStrict))
			Expect(draft.Priority).To(HaveKeyWithValue("level", "urgent"))

			analysis := enrich.Validate(draft)
			Expect(analysis.Priority.Level).To(Equal(model.PriorityUrgent))
			Expect(analysis.Priority.Reasons).To(Equal([]string{"client escalation"}))
		})

		It("skips a single-quoted value that starts like a key", func() {
			draft, diag := parser.Parse(`{note: 'sentiment: unclear', sentiment: {score: 0.3, label: 'positive'}, deliverables: [`)

			Expect(diag.TopLevel).To(Equal(enrich.StageFailed))
			Expect(draft.Sentiment).To(HaveKeyWithValue("label", "positive"))
			Expect(diag.Fields).To(HaveKeyWithValue(enrich.FieldSentiment, enrich.StageLenient))
		})

		It("still finds keys after a stray apostrophe", func() {
			draft, diag := parser.Parse(`{note: don't panic, sentiment: {score: 0.3, label: "positive"}, deliverables: [`)

			Expect(diag.TopLevel).To(Equal(enrich.StageFailed))
			Expect(draft.Sentiment).To(HaveKeyWithValue("label", "positive"))
		})
	})

	Context("with text that holds nothing structured", func() {
		It("returns an empty draft without failures", func() {
			draft, diag := parser.Parse("I'm sorry, I can't analyze that message.")
			Expect(draft).To(Equal(enrich.Draft{}))
			Expect(diag.TopLevel).To(Equal(enrich.StageFailed))
			Expect(diag.Failures).To(BeEmpty())
		})

		It("handles empty input", func() {
			draft, _ := parser.Parse("")
			Expect(enrich.Validate(draft)).To(Equal(model.EmptyAnalysis()))
		})
	})

	It("defaults an array field to empty when every stage fails", func() {
		draft, diag := parser.Parse(`{"deliverables": "not an array at all"}`)
		Expect(draft.Deliverables).To(BeEmpty())
		Expect(diag.Fields).To(HaveKeyWithValue(enrich.FieldDeliverables, enrich.StageFailed))
		Expect(diag.Failures).To(HaveLen(1))
		Expect(diag.Failures[0].Raw).To(Equal("not an array at all"))
	})
})
