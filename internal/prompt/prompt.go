// Package prompt renders the completion request for one message. Build is
// pure: the same message always yields the same text.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

var channelContext = map[model.ChannelKind]string{
	model.ChannelKindMain: "This message comes from the main project channel, where strategy, " +
		"creative direction and overall project management are discussed.",
	model.ChannelKindProduction: "This message comes from the production channel, where the studio " +
		"team works on design and motion assets and runs internal reviews and iterations.",
	model.ChannelKindClient: "This message comes from the external client channel, where clients " +
		"make requests, review assets and raise concerns.",
}

const genericChannelContext = "This message comes from a monitored team channel."

// Build renders the analysis prompt for msg.
func Build(msg *model.Message) string {
	kind := string(msg.ChannelKind)
	description, ok := channelContext[msg.ChannelKind]
	if !ok {
		description = genericChannelContext
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are analyzing a Slack message from a creative agency's %s channel.\n\n", kind))
	sb.WriteString(description)
	sb.WriteString("\n\n")

	sb.WriteString("Message details:\n")
	sb.WriteString(fmt.Sprintf("- Author: %s\n", msg.AuthorName))
	sb.WriteString(fmt.Sprintf("- Channel: %s\n", kind))
	sb.WriteString(fmt.Sprintf("- Text: %q\n", msg.Text))
	sb.WriteString(fmt.Sprintf("- Timestamp: %s\n\n", msg.OccurredAt.UTC().Format(time.RFC3339)))

	sb.WriteString("Analyze the message and respond with JSON shaped like this example:\n")
	sb.WriteString(schemaExample)
	sb.WriteString("\n\n")
	sb.WriteString(instructions)
	return sb.String()
}

const schemaExample = `{
  "sentiment": {"score": 0.5, "label": "positive|neutral|negative", "confidence": 0.8},
  "entities": [
    {"type": "person|project|deliverable|deadline|client|asset", "value": "extracted entity", "confidence": 0.9}
  ],
  "intent": {"category": "request|update|concern|approval|question|decision", "confidence": 0.8},
  "priority": {"level": "low|medium|high|urgent", "reasons": ["why this priority level"]},
  "deliverables": [
    {"name": "asset or deliverable name", "status": "concept|in-progress|review|approved|delivered",
     "assignee": "person responsible", "deadline": "2024-01-15T00:00:00Z", "confidence": 0.7}
  ],
  "actionItems": [
    {"task": "specific action needed", "assignee": "person responsible", "deadline": "2024-01-15T00:00:00Z", "confidence": 0.8}
  ]
}`

const instructions = "Return only the JSON object, without Markdown or commentary. " +
	"Extract concrete information only. When something is unclear or not mentioned, " +
	"leave it out or give it a low confidence."
