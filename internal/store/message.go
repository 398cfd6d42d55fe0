package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/br00kd0wnt0n/LENNYBOT/core/db"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

const messageColumns = `id, external_id, channel_id, channel_kind, author_id, author_name, text,
	occurred_at, thread_id, attachments, reactions, profile, is_bot,
	processed, processed_at, analysis, created_at, updated_at`

type messageStore struct {
	q db.Querier
}

func newMessageStore(q db.Querier) MessageStore {
	return &messageStore{q: q}
}

// Upsert relies on a no-op ON CONFLICT update so the existing row is
// returned even when a concurrent insert of the same external id wins.
func (s *messageStore) Upsert(ctx context.Context, msg *model.Message) (*model.Message, bool, error) {
	attachments, err := marshalJSON(msg.Attachments, "[]")
	if err != nil {
		return nil, false, fmt.Errorf("encoding attachments: %w", err)
	}
	reactions, err := marshalJSON(msg.Reactions, "[]")
	if err != nil {
		return nil, false, fmt.Errorf("encoding reactions: %w", err)
	}
	profile := []byte(msg.Profile)
	if len(profile) == 0 {
		profile = []byte("{}")
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO messages (id, external_id, channel_id, channel_kind, author_id, author_name, text,
			occurred_at, thread_id, attachments, reactions, profile, is_bot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (external_id) DO UPDATE SET external_id = messages.external_id
		RETURNING `+messageColumns,
		msg.ID, msg.ExternalID, msg.ChannelID, string(msg.ChannelKind), msg.AuthorID, msg.AuthorName, msg.Text,
		msg.OccurredAt, msg.ThreadID, attachments, reactions, profile, msg.IsBot,
	)

	stored, err := scanMessage(row)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == msg.ID, nil
}

func (s *messageStore) AppendReaction(ctx context.Context, externalID string, reaction model.Reaction) error {
	payload, err := json.Marshal([]model.Reaction{reaction})
	if err != nil {
		return fmt.Errorf("encoding reaction: %w", err)
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE messages
		SET reactions = reactions || $2::jsonb, updated_at = now()
		WHERE external_id = $1`,
		externalID, payload,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *messageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	row := s.q.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

// ListUnprocessed orders never-attempted rows first, then by the last failed
// attempt, so rows that keep failing cannot starve newer ones.
func (s *messageStore) ListUnprocessed(ctx context.Context, limit int, createdBefore time.Time) ([]model.Message, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE processed = FALSE AND created_at < $2
		ORDER BY last_attempt_at NULLS FIRST, occurred_at, id
		LIMIT $1`, limit, createdBefore)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (s *messageStore) RecordFailedAttempt(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE messages
		SET enrich_attempts = enrich_attempts + 1, last_attempt_at = $2, updated_at = now()
		WHERE id = $1 AND processed = FALSE`,
		id, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *messageStore) UpdateAnalysis(ctx context.Context, id int64, analysis model.Analysis, processedAt time.Time) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE messages
		SET analysis = $2, processed = TRUE, processed_at = $3, updated_at = now()
		WHERE id = $1`,
		id, payload, processedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var (
		msg                                       model.Message
		kind                                      string
		attachments, reactions, profile, analysis []byte
	)
	err := row.Scan(
		&msg.ID, &msg.ExternalID, &msg.ChannelID, &kind, &msg.AuthorID, &msg.AuthorName, &msg.Text,
		&msg.OccurredAt, &msg.ThreadID, &attachments, &reactions, &profile, &msg.IsBot,
		&msg.Processed, &msg.ProcessedAt, &analysis, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.ChannelKind = model.ChannelKind(kind)

	if err := json.Unmarshal(attachments, &msg.Attachments); err != nil {
		return nil, fmt.Errorf("decoding attachments of message %d: %w", msg.ID, err)
	}
	if err := json.Unmarshal(reactions, &msg.Reactions); err != nil {
		return nil, fmt.Errorf("decoding reactions of message %d: %w", msg.ID, err)
	}
	msg.Profile = json.RawMessage(profile)
	if analysis != nil {
		msg.Analysis = new(model.Analysis)
		if err := json.Unmarshal(analysis, msg.Analysis); err != nil {
			return nil, fmt.Errorf("decoding analysis of message %d: %w", msg.ID, err)
		}
	}
	return &msg, nil
}

func collectMessages(rows pgx.Rows) ([]model.Message, error) {
	defer rows.Close()

	result := []model.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func marshalJSON[T any](v []T, empty string) ([]byte, error) {
	if len(v) == 0 {
		return []byte(empty), nil
	}
	return json.Marshal(v)
}
