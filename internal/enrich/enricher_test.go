package enrich_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/common/llm"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/enrich"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return m.completeFn(ctx, prompt)
}

func (m *mockCompleter) Model() string { return "mock" }

type mockAnalysisWriter struct {
	updateFn func(ctx context.Context, id int64, a model.Analysis, at time.Time) error
}

func (m *mockAnalysisWriter) UpdateAnalysis(ctx context.Context, id int64, a model.Analysis, at time.Time) error {
	return m.updateFn(ctx, id, a, at)
}

var _ = Describe("Enricher", func() {
	var (
		ctx       context.Context
		completer *mockCompleter
		writer    *mockAnalysisWriter
		enricher  *enrich.Enricher
		msg       *model.Message
		stored    *model.Analysis
		storedID  int64
	)

	BeforeEach(func() {
		ctx = context.Background()
		stored = nil
		storedID = 0
		msg = &model.Message{
			ID:          99,
			ExternalID:  "C1/1700000000.000100",
			ChannelKind: model.ChannelKindProduction,
			AuthorName:  "Sam",
			Text:        "Logo v2 is ready for review",
			OccurredAt:  time.Unix(1700000000, 0),
		}
		completer = &mockCompleter{}
		writer = &mockAnalysisWriter{
			updateFn: func(_ context.Context, id int64, a model.Analysis, _ time.Time) error {
				storedID = id
				stored = &a
				return nil
			},
		}
		enricher = enrich.NewEnricher(completer, writer)
	})

	It("stores the validated analysis", func() {
		var gotPrompt string
		completer.completeFn = func(_ context.Context, prompt string) (string, error) {
			gotPrompt = prompt
			return `{"priority": {"level": "high"}, "deliverables": [{"name": "Logo v2", "status": "review"}]}`, nil
		}

		analysis, err := enricher.Enrich(ctx, msg)

		Expect(err).NotTo(HaveOccurred())
		Expect(gotPrompt).To(ContainSubstring("Logo v2 is ready for review"))
		Expect(storedID).To(Equal(int64(99)))
		Expect(stored).To(Equal(analysis))
		Expect(analysis.Priority.Level).To(Equal(model.PriorityHigh))
		Expect(analysis.Deliverables).To(HaveLen(1))
		Expect(analysis.Deliverables[0].Status).To(Equal(model.DeliverableReview))
		Expect(analysis.Sentiment.Label).To(Equal(model.SentimentNeutral))
	})

	It("stores defaults when the output is unusable", func() {
		completer.completeFn = func(context.Context, string) (string, error) {
			return "Sorry, I can't help with that.", nil
		}

		analysis, err := enricher.Enrich(ctx, msg)

		Expect(err).NotTo(HaveOccurred())
		Expect(*analysis).To(Equal(model.EmptyAnalysis()))
		Expect(stored).NotTo(BeNil())
	})

	It("leaves the message unprocessed when the completion fails", func() {
		completer.completeFn = func(context.Context, string) (string, error) {
			return "", &llm.TransientError{Provider: "openai", Err: errors.New("connection reset")}
		}

		_, err := enricher.Enrich(ctx, msg)

		Expect(err).To(HaveOccurred())
		Expect(llm.IsTransient(err)).To(BeTrue())
		Expect(stored).To(BeNil())
	})

	It("returns store failures", func() {
		completer.completeFn = func(context.Context, string) (string, error) { return `{}`, nil }
		writer.updateFn = func(context.Context, int64, model.Analysis, time.Time) error {
			return errors.New("db down")
		}

		_, err := enricher.Enrich(ctx, msg)
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})
})
