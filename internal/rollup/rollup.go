// Package rollup folds analyzed messages into derived views. Every function
// is pure: inputs are never mutated and results are recomputed per call.
package rollup

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

// UrgentQueueSize caps the urgent queue.
const UrgentQueueSize = 10

// Sentiment scores beyond these bounds count as positive or negative.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// Deliverable is the current state of a deliverable: its latest mention.
type Deliverable struct {
	UpdatedAt   time.Time               `json:"updated_at"`
	Deadline    *time.Time              `json:"deadline,omitempty"`
	Assignee    *string                 `json:"assignee,omitempty"`
	Name        string                  `json:"name"`
	Status      model.DeliverableStatus `json:"status"`
	ChannelKind model.ChannelKind       `json:"channel_kind"`
	Confidence  float64                 `json:"confidence"`
	MessageID   int64                   `json:"message_id"`
}

type WorkloadItem struct {
	Deadline *time.Time              `json:"deadline,omitempty"`
	Name     string                  `json:"name"`
	Status   model.DeliverableStatus `json:"status"`
}

type WorkloadEntry struct {
	LastActive   time.Time      `json:"last_active"`
	Assignee     string         `json:"assignee"`
	Deliverables []WorkloadItem `json:"deliverables"`
	ActiveCount  int            `json:"active_count"`
}

type SentimentSummary struct {
	ChannelKind model.ChannelKind `json:"channel_kind"`
	Average     float64           `json:"average"`
	Total       int               `json:"total"`
	Positive    int               `json:"positive"`
	Negative    int               `json:"negative"`
}

type UrgentItem struct {
	OccurredAt  time.Time           `json:"occurred_at"`
	Reasons     []string            `json:"reasons"`
	ExternalID  string              `json:"external_id"`
	ChannelKind model.ChannelKind   `json:"channel_kind"`
	AuthorName  string              `json:"author_name"`
	Text        string              `json:"text"`
	Level       model.PriorityLevel `json:"level"`
	MessageID   int64               `json:"message_id"`
}

type ChannelActivity struct {
	LastMessageAt *time.Time        `json:"last_message_at,omitempty"`
	ChannelKind   model.ChannelKind `json:"channel_kind"`
	Authors       []string          `json:"authors"`
	MessageCount  int               `json:"message_count"`
	UniqueUsers   int               `json:"unique_users"`
}

// MergeDeliverables folds deliverable mentions into one Deliverable per
// name: the mention from the message with the greatest OccurredAt. On equal
// OccurredAt the mention seen first in msgs wins. Mentions without a name
// are skipped. Results are ordered most recently updated first.
func MergeDeliverables(msgs []model.Message) []Deliverable {
	latest := make(map[string]Deliverable)
	var order []string

	for _, msg := range msgs {
		if msg.Analysis == nil {
			continue
		}
		for _, m := range msg.Analysis.Deliverables {
			if m.Name == "" {
				continue
			}
			current, seen := latest[m.Name]
			if seen && !msg.OccurredAt.After(current.UpdatedAt) {
				continue
			}
			if !seen {
				order = append(order, m.Name)
			}
			latest[m.Name] = Deliverable{
				Name:        m.Name,
				Status:      m.Status,
				Assignee:    m.Assignee,
				Deadline:    m.Deadline,
				Confidence:  m.Confidence,
				MessageID:   msg.ID,
				ChannelKind: msg.ChannelKind,
				UpdatedAt:   msg.OccurredAt,
			}
		}
	}

	out := make([]Deliverable, 0, len(order))
	for _, name := range order {
		out = append(out, latest[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// CountByStatus counts deliverables per status. Every status is present.
func CountByStatus(deliverables []Deliverable) map[model.DeliverableStatus]int {
	counts := make(map[model.DeliverableStatus]int, len(model.DeliverableStatuses))
	for _, s := range model.DeliverableStatuses {
		counts[s] = 0
	}
	for _, d := range deliverables {
		counts[d.Status]++
	}
	return counts
}

// Workload groups active-status mentions by assignee. ActiveCount is the
// number of mentions and LastActive the latest OccurredAt among them.
// Entries are ordered by ActiveCount, busiest first.
func Workload(msgs []model.Message) []WorkloadEntry {
	byAssignee := make(map[string]*WorkloadEntry)

	for _, msg := range msgs {
		if msg.Analysis == nil {
			continue
		}
		for _, m := range msg.Analysis.Deliverables {
			if !m.Status.IsActive() || m.Assignee == nil || strings.TrimSpace(*m.Assignee) == "" {
				continue
			}
			entry, ok := byAssignee[*m.Assignee]
			if !ok {
				entry = &WorkloadEntry{Assignee: *m.Assignee, Deliverables: []WorkloadItem{}}
				byAssignee[*m.Assignee] = entry
			}
			entry.ActiveCount++
			if msg.OccurredAt.After(entry.LastActive) {
				entry.LastActive = msg.OccurredAt
			}
			entry.Deliverables = append(entry.Deliverables, WorkloadItem{
				Name:     m.Name,
				Status:   m.Status,
				Deadline: m.Deadline,
			})
		}
	}

	out := make([]WorkloadEntry, 0, len(byAssignee))
	for _, entry := range byAssignee {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveCount != out[j].ActiveCount {
			return out[i].ActiveCount > out[j].ActiveCount
		}
		if !out[i].LastActive.Equal(out[j].LastActive) {
			return out[i].LastActive.After(out[j].LastActive)
		}
		return out[i].Assignee < out[j].Assignee
	})
	return out
}

// Sentiment averages sentiment scores of analyzed messages of one channel
// kind inside w. Average is 0 when nothing matches.
func Sentiment(msgs []model.Message, kind model.ChannelKind, w Window) SentimentSummary {
	summary := SentimentSummary{ChannelKind: kind}
	var sum float64

	for _, msg := range msgs {
		if msg.Analysis == nil || msg.ChannelKind != kind || !w.Contains(msg.OccurredAt) {
			continue
		}
		score := msg.Analysis.Sentiment.Score
		sum += score
		summary.Total++
		switch {
		case score > positiveThreshold:
			summary.Positive++
		case score < negativeThreshold:
			summary.Negative++
		}
	}

	if summary.Total > 0 {
		summary.Average = sum / float64(summary.Total)
	}
	return summary
}

// UrgentQueue lists high and urgent messages inside w, most recent first,
// capped at UrgentQueueSize.
func UrgentQueue(msgs []model.Message, w Window) []UrgentItem {
	items := urgentItems(msgs, w)
	if len(items) > UrgentQueueSize {
		items = items[:UrgentQueueSize]
	}
	return items
}

func urgentItems(msgs []model.Message, w Window) []UrgentItem {
	items := []UrgentItem{}
	for _, msg := range msgs {
		if msg.Analysis == nil || !msg.Analysis.Priority.Level.IsUrgent() || !w.Contains(msg.OccurredAt) {
			continue
		}
		items = append(items, UrgentItem{
			MessageID:   msg.ID,
			ExternalID:  msg.ExternalID,
			ChannelKind: msg.ChannelKind,
			AuthorName:  msg.AuthorName,
			Text:        msg.Text,
			Level:       msg.Analysis.Priority.Level,
			Reasons:     slices.Clone(msg.Analysis.Priority.Reasons),
			OccurredAt:  msg.OccurredAt,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].OccurredAt.Equal(items[j].OccurredAt) {
			return items[i].OccurredAt.After(items[j].OccurredAt)
		}
		return items[i].MessageID > items[j].MessageID
	})
	return items
}

// Activity counts messages per channel kind inside w. Every kind is present.
func Activity(msgs []model.Message, w Window) []ChannelActivity {
	type acc struct {
		count   int
		authors map[string]struct{}
		last    *time.Time
	}
	byKind := make(map[model.ChannelKind]*acc, len(model.ChannelKinds))
	for _, kind := range model.ChannelKinds {
		byKind[kind] = &acc{authors: make(map[string]struct{})}
	}

	for _, msg := range msgs {
		a, ok := byKind[msg.ChannelKind]
		if !ok || !w.Contains(msg.OccurredAt) {
			continue
		}
		a.count++
		a.authors[msg.AuthorName] = struct{}{}
		if a.last == nil || msg.OccurredAt.After(*a.last) {
			at := msg.OccurredAt
			a.last = &at
		}
	}

	out := make([]ChannelActivity, 0, len(model.ChannelKinds))
	for _, kind := range model.ChannelKinds {
		a := byKind[kind]
		authors := make([]string, 0, len(a.authors))
		for name := range a.authors {
			authors = append(authors, name)
		}
		sort.Strings(authors)
		out = append(out, ChannelActivity{
			ChannelKind:   kind,
			MessageCount:  a.count,
			UniqueUsers:   len(authors),
			Authors:       authors,
			LastMessageAt: a.last,
		})
	}
	return out
}
