package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/core/config"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

// DropReason says why an inbound event was not stored. The empty reason
// means the event was accepted.
type DropReason string

const (
	Accepted           DropReason = ""
	DropUnmonitored    DropReason = "unmonitored_channel"
	DropIgnoredSubtype DropReason = "ignored_subtype"
	DropMalformed      DropReason = "malformed"
	DropAuthorLookup   DropReason = "author_lookup"
)

// Subtypes that are echoes of our own posts or edits of stored messages.
var ignoredSubtypes = map[string]bool{
	"bot_message":     true,
	"message_changed": true,
}

// Normalizer turns platform events into canonical messages.
type Normalizer struct {
	channels  map[string]model.ChannelKind
	directory UserDirectory
	now       func() time.Time
}

func NewNormalizer(channels config.ChannelsConfig, directory UserDirectory) *Normalizer {
	byID := make(map[string]model.ChannelKind, len(channels.ByID))
	for id, kind := range channels.ByID {
		byID[id] = model.ChannelKind(kind)
	}
	return &Normalizer{
		channels:  byID,
		directory: directory,
		now:       time.Now,
	}
}

// Monitored reports the channel kind of a monitored channel.
func (n *Normalizer) Monitored(channelID string) (model.ChannelKind, bool) {
	kind, ok := n.channels[channelID]
	return kind, ok
}

// Normalize builds the canonical message for evt. A non-empty DropReason
// means the event is ignored; it is never an error for the caller.
func (n *Normalizer) Normalize(ctx context.Context, evt MessageEvent) (*model.Message, DropReason) {
	kind, ok := n.Monitored(evt.Channel)
	if !ok {
		return nil, DropUnmonitored
	}
	if ignoredSubtypes[evt.Subtype] {
		return nil, DropIgnoredSubtype
	}

	occurredAt, err := OccurredAt(evt.TS)
	if err != nil {
		slog.WarnContext(ctx, "dropping message with bad timestamp", "ts", evt.TS, "error", err)
		return nil, DropMalformed
	}

	if evt.User == "" {
		slog.WarnContext(ctx, "dropping message without author", "ts", evt.TS, "subtype", evt.Subtype)
		return nil, DropAuthorLookup
	}
	author, err := n.directory.LookupUser(ctx, evt.User)
	if err != nil {
		slog.ErrorContext(ctx, "author lookup failed, dropping message",
			"user_id", evt.User,
			"error", err)
		return nil, DropAuthorLookup
	}

	msg := &model.Message{
		ExternalID:  ExternalID(evt.Channel, evt.TS),
		ChannelID:   evt.Channel,
		ChannelKind: kind,
		AuthorID:    evt.User,
		AuthorName:  author.Name,
		Text:        evt.Text,
		OccurredAt:  occurredAt,
		Attachments: attachments(evt.Files),
		Reactions:   []model.Reaction{},
		Profile:     author.Profile,
		IsBot:       author.IsBot,
	}
	if evt.ThreadTS != "" {
		thread := evt.ThreadTS
		msg.ThreadID = &thread
	}

	return msg, Accepted
}

// NormalizeReaction returns the external id of the reacted-to message and
// the reaction to append to it.
func (n *Normalizer) NormalizeReaction(evt ReactionEvent) (string, model.Reaction, DropReason) {
	if _, ok := n.Monitored(evt.Item.Channel); !ok {
		return "", model.Reaction{}, DropUnmonitored
	}
	if evt.Item.TS == "" || evt.Reaction == "" {
		return "", model.Reaction{}, DropMalformed
	}

	at, err := OccurredAt(evt.EventTS)
	if err != nil {
		at = n.now().UTC()
	}

	return ExternalID(evt.Item.Channel, evt.Item.TS), model.Reaction{
		Emoji:  evt.Reaction,
		UserID: evt.User,
		At:     at,
	}, Accepted
}

// ExternalID identifies a message by channel and timestamp. Slack message
// timestamps are only unique within a channel.
func ExternalID(channelID, ts string) string {
	return channelID + "/" + ts
}

// OccurredAt converts a "seconds.fraction" platform timestamp to UTC.
// The fraction is read as decimal digits so no float rounding is involved.
func OccurredAt(ts string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", ts, err)
	}

	var nanos int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil || frac < 0 {
			return time.Time{}, fmt.Errorf("parsing timestamp fraction %q", ts)
		}
		for i := len(fracPart); i < 9; i++ {
			frac *= 10
		}
		nanos = frac
	}

	return time.Unix(sec, nanos).UTC(), nil
}

func attachments(files []File) []model.Attachment {
	out := make([]model.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, model.Attachment{
			Name:     f.Name,
			MimeType: f.Mimetype,
			URL:      f.URLPrivate,
			Size:     f.Size,
		})
	}
	return out
}
