package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers enrich the context once and every log line below them carries the
// message identity without passing it around explicitly.
type LogFields struct {
	MessageID       *int64  // Stored message row ID
	ExternalID      *string // Source-system message identifier
	StreamMessageID *string // Redis stream entry ID
	ChannelKind     *string // main, production or client
	EventType       *string // Inbound event type (e.g., "message", "reaction_added")
	Component       string  // Component name (e.g., "pulse.worker.backlog")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.ExternalID != nil {
		result.ExternalID = next.ExternalID
	}
	if next.StreamMessageID != nil {
		result.StreamMessageID = next.StreamMessageID
	}
	if next.ChannelKind != nil {
		result.ChannelKind = next.ChannelKind
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
