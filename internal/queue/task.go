package queue

// EnrichTask asks the worker to enrich one stored message.
type EnrichTask struct {
	MessageID  int64
	ExternalID string
	TraceID    string
	Attempt    int
}

// Stream entry field names shared by the producer and the consumer.
const (
	fieldMessageID  = "message_id"
	fieldExternalID = "external_id"
	fieldTraceID    = "trace_id"
	fieldAttempt    = "attempt"
	fieldError      = "error"
)

func taskValues(task EnrichTask) map[string]any {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	values := map[string]any{
		fieldMessageID: task.MessageID,
		fieldAttempt:   attempt,
	}
	if task.ExternalID != "" {
		values[fieldExternalID] = task.ExternalID
	}
	if task.TraceID != "" {
		values[fieldTraceID] = task.TraceID
	}
	return values
}
