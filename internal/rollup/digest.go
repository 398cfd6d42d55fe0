package rollup

import (
	"sort"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

type DeliverableUpdate struct {
	OccurredAt time.Time               `json:"occurred_at"`
	Deadline   *time.Time              `json:"deadline,omitempty"`
	Assignee   *string                 `json:"assignee,omitempty"`
	Name       string                  `json:"name"`
	Status     model.DeliverableStatus `json:"status"`
	AuthorName string                  `json:"author_name"`
}

// ChannelDigest summarizes one channel kind over one day.
type ChannelDigest struct {
	ChannelKind        model.ChannelKind   `json:"channel_kind"`
	Users              []string            `json:"users"`
	DeliverableUpdates []DeliverableUpdate `json:"deliverable_updates"`
	UrgentItems        []UrgentItem        `json:"urgent_items"`
	MessageCount       int                 `json:"message_count"`
	UniqueUsers        int                 `json:"unique_users"`
}

// Digest builds a per-channel summary of the messages inside w, in
// model.ChannelKinds order. Message and user counts include messages not yet
// analyzed; deliverable updates and urgent items need an analysis.
func Digest(msgs []model.Message, w Window) []ChannelDigest {
	activity := Activity(msgs, w)
	out := make([]ChannelDigest, 0, len(activity))

	for _, a := range activity {
		digest := ChannelDigest{
			ChannelKind:        a.ChannelKind,
			MessageCount:       a.MessageCount,
			UniqueUsers:        a.UniqueUsers,
			Users:              a.Authors,
			DeliverableUpdates: []DeliverableUpdate{},
		}

		var inChannel []model.Message
		for _, msg := range msgs {
			if msg.ChannelKind == a.ChannelKind {
				inChannel = append(inChannel, msg)
			}
		}

		for _, msg := range inChannel {
			if msg.Analysis == nil || !w.Contains(msg.OccurredAt) {
				continue
			}
			for _, m := range msg.Analysis.Deliverables {
				digest.DeliverableUpdates = append(digest.DeliverableUpdates, DeliverableUpdate{
					Name:       m.Name,
					Status:     m.Status,
					Assignee:   m.Assignee,
					Deadline:   m.Deadline,
					AuthorName: msg.AuthorName,
					OccurredAt: msg.OccurredAt,
				})
			}
		}
		sort.SliceStable(digest.DeliverableUpdates, func(i, j int) bool {
			return digest.DeliverableUpdates[i].OccurredAt.Before(digest.DeliverableUpdates[j].OccurredAt)
		})

		digest.UrgentItems = urgentItems(inChannel, w)
		out = append(out, digest)
	}
	return out
}
