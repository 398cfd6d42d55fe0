package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/br00kd0wnt0n/LENNYBOT/core/db"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/rollup"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type rollupStore struct {
	q db.Querier
}

func newRollupStore(q db.Querier) RollupStore {
	return &rollupStore{q: q}
}

func (s *rollupStore) ListMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error) {
	query, args, err := messageQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building message query: %w", err)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func messageQuery(filter MessageFilter) sq.SelectBuilder {
	query := psql.Select(messageColumns).From("messages")

	if filter.ChannelKind != "" {
		query = query.Where(sq.Eq{"channel_kind": string(filter.ChannelKind)})
	}
	if !filter.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"occurred_at": filter.Since})
	}
	if !filter.Until.IsZero() {
		query = query.Where(sq.LtOrEq{"occurred_at": filter.Until})
	}
	if filter.AnalyzedOnly {
		query = query.Where(sq.Eq{"processed": true}).Where(sq.NotEq{"analysis": nil})
	}

	if filter.NewestFirst {
		query = query.OrderBy("occurred_at DESC", "id DESC")
	} else {
		query = query.OrderBy("occurred_at", "id")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	return query
}

func (s *rollupStore) ChannelActivity(ctx context.Context, w rollup.Window) ([]rollup.ChannelActivity, error) {
	query, args, err := channelActivityQuery(w).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building activity query: %w", err)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byKind := make(map[model.ChannelKind]rollup.ChannelActivity)
	for rows.Next() {
		var (
			kind    string
			count   int
			authors []string
			last    *time.Time
		)
		if err := rows.Scan(&kind, &count, &authors, &last); err != nil {
			return nil, err
		}
		sort.Strings(authors)
		byKind[model.ChannelKind(kind)] = rollup.ChannelActivity{
			ChannelKind:   model.ChannelKind(kind),
			MessageCount:  count,
			UniqueUsers:   len(authors),
			Authors:       authors,
			LastMessageAt: last,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Same shape as rollup.Activity: every kind, fixed order.
	out := make([]rollup.ChannelActivity, 0, len(model.ChannelKinds))
	for _, kind := range model.ChannelKinds {
		activity, ok := byKind[kind]
		if !ok {
			activity = rollup.ChannelActivity{ChannelKind: kind, Authors: []string{}}
		}
		out = append(out, activity)
	}
	return out, nil
}

func channelActivityQuery(w rollup.Window) sq.SelectBuilder {
	return psql.
		Select("channel_kind", "count(*)", "array_agg(DISTINCT author_name)", "max(occurred_at)").
		From("messages").
		Where(sq.GtOrEq{"occurred_at": w.Since}).
		Where(sq.LtOrEq{"occurred_at": w.Until}).
		GroupBy("channel_kind")
}
