package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/common/llm"
	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/prompt"
)

// AnalysisWriter persists a message's analysis and marks it processed.
type AnalysisWriter interface {
	UpdateAnalysis(ctx context.Context, messageID int64, analysis model.Analysis, processedAt time.Time) error
}

// Enricher runs one message through prompt, completion, parse and
// validation, then stores the result.
type Enricher struct {
	completer llm.Completer
	parser    *Parser
	writer    AnalysisWriter
	now       func() time.Time
}

func NewEnricher(completer llm.Completer, writer AnalysisWriter) *Enricher {
	return &Enricher{
		completer: completer,
		parser:    NewParser(),
		writer:    writer,
		now:       time.Now,
	}
}

// Enrich analyzes msg. A completion or store failure is returned and the
// message stays unprocessed. Malformed completion output is not a failure:
// whatever parsed is stored.
func (e *Enricher) Enrich(ctx context.Context, msg *model.Message) (*model.Analysis, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:   logger.Ptr(msg.ID),
		ExternalID:  logger.Ptr(msg.ExternalID),
		ChannelKind: logger.Ptr(string(msg.ChannelKind)),
		Component:   "pulse.enrich",
	})

	sc := logger.StartSpan(ctx, "enrich.message")
	defer sc.End()
	ctx = sc.Context()

	text, err := e.completer.Complete(ctx, prompt.Build(msg))
	if err != nil {
		sc.RecordError(err)
		metrics.Enrichments.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("completing message %d: %w", msg.ID, err)
	}

	draft, diag := e.parser.Parse(text)
	e.report(ctx, diag)

	analysis := Validate(draft)
	if err := e.writer.UpdateAnalysis(ctx, msg.ID, analysis, e.now().UTC()); err != nil {
		sc.RecordError(err)
		metrics.Enrichments.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("storing analysis for message %d: %w", msg.ID, err)
	}

	metrics.Enrichments.WithLabelValues(metrics.OutcomeSuccess).Inc()
	slog.DebugContext(ctx, "message enriched",
		"parse_stage", diag.TopLevel,
		"sentiment", analysis.Sentiment.Label,
		"priority", analysis.Priority.Level,
		"deliverables", len(analysis.Deliverables),
		"action_items", len(analysis.ActionItems))

	return &analysis, nil
}

func (e *Enricher) report(ctx context.Context, diag Diagnostics) {
	for field, stage := range diag.Fields {
		metrics.ParseRecoveries.WithLabelValues(field, string(stage)).Inc()
	}

	if diag.Panic != "" {
		slog.ErrorContext(ctx, "parser panicked, storing empty analysis", "panic", diag.Panic)
	}
	for _, f := range diag.Failures {
		slog.WarnContext(ctx, "completion field unrecoverable",
			"field", f.Field,
			"raw", logger.Truncate(f.Raw, 2000),
			"reasons", f.Reasons)
	}
}
