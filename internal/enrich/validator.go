package enrich

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

// Validate coerces a Draft into an Analysis. It is the only place the
// analysis shape is enforced: labels outside their enum fall back to a
// default, numbers that do not parse become 0, scores and confidences are
// clamped to range, and every slice is non-nil.
func Validate(d Draft) model.Analysis {
	a := model.EmptyAnalysis()

	if d.Sentiment != nil {
		a.Sentiment = model.Sentiment{
			Score:      clamp(number(d.Sentiment["score"]), -1, 1),
			Label:      sentimentLabel(d.Sentiment["label"]),
			Confidence: confidence(d.Sentiment["confidence"]),
		}
	}

	if d.Intent != nil {
		category, ok := text(d.Intent["category"])
		if !ok || category == "" {
			category = model.DefaultIntentCategory
		}
		a.Intent = model.Intent{
			Category:   strings.ToLower(category),
			Confidence: confidence(d.Intent["confidence"]),
		}
	}

	if d.Priority != nil {
		a.Priority = model.Priority{
			Level:   priorityLevel(d.Priority["level"]),
			Reasons: reasons(d.Priority["reasons"]),
		}
	}

	for _, e := range d.Entities {
		entityType, ok := text(e["type"])
		if !ok || entityType == "" {
			entityType = "unknown"
		}
		value, _ := text(e["value"])
		a.Entities = append(a.Entities, model.Entity{
			Type:       entityType,
			Value:      value,
			Confidence: confidence(e["confidence"]),
		})
	}

	for _, m := range d.Deliverables {
		a.Deliverables = append(a.Deliverables, model.DeliverableMention{
			Name:       firstText(m, "name", "value"),
			Status:     deliverableStatus(m["status"]),
			Assignee:   optionalText(m["assignee"]),
			Deadline:   deadline(m["deadline"]),
			Confidence: confidence(m["confidence"]),
		})
	}

	for _, m := range d.ActionItems {
		a.ActionItems = append(a.ActionItems, model.ActionItemMention{
			Task:       firstText(m, "task", "value"),
			Assignee:   optionalText(m["assignee"]),
			Deadline:   deadline(m["deadline"]),
			Confidence: confidence(m["confidence"]),
		})
	}

	return a
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// number reads v as a float the way a lenient reader would: numeric strings
// with trailing text use their numeric prefix. Anything else, including NaN
// and infinities, is 0.
func number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		prefix := leadingNumber.FindString(strings.TrimSpace(n))
		if prefix == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

func confidence(v any) float64 {
	return clamp(number(v), 0, 1)
}

// text returns v as a trimmed string. Numbers are formatted; other types
// are rejected.
func text(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return "", false
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case json.Number:
		return s.String(), true
	}
	return "", false
}

func firstText(f Fields, keys ...string) string {
	for _, key := range keys {
		if s, ok := text(f[key]); ok && s != "" {
			return s
		}
	}
	return ""
}

func optionalText(v any) *string {
	s, ok := text(v)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func sentimentLabel(v any) model.SentimentLabel {
	s, _ := text(v)
	switch label := model.SentimentLabel(strings.ToLower(s)); label {
	case model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative:
		return label
	}
	return model.SentimentNeutral
}

func priorityLevel(v any) model.PriorityLevel {
	s, _ := text(v)
	switch level := model.PriorityLevel(strings.ToLower(s)); level {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
		return level
	}
	return model.PriorityLow
}

var statusSeparators = strings.NewReplacer("_", "-", " ", "-")

func deliverableStatus(v any) model.DeliverableStatus {
	s, _ := text(v)
	normalized := statusSeparators.Replace(strings.ToLower(s))
	if normalized == "inprogress" {
		normalized = string(model.DeliverableInProgress)
	}
	for _, status := range model.DeliverableStatuses {
		if normalized == string(status) {
			return status
		}
	}
	return model.DeliverableConcept
}

// reasons keeps string entries of an array. A lone string becomes a
// one-element list; anything else is empty.
func reasons(v any) []string {
	out := []string{}
	switch r := v.(type) {
	case []any:
		for _, item := range r {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(r); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// deadline parses v as a timestamp. Unparseable values yield nil.
func deadline(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
