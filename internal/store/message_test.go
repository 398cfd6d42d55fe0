package store

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
)

type fakeQuerier struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.execFn(ctx, sql, args...)
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.queryFn == nil {
		return nil, errors.New("not implemented")
	}
	return f.queryFn(ctx, sql, args...)
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.queryRowFn(ctx, sql, args...)
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// valuesRow scans values positionally into the destinations; nil leaves the
// destination at its zero value.
type valuesRow []any

func (r valuesRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return errors.New("column count mismatch")
	}
	for i, v := range r {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

// messageRow lays out a stored message in messageColumns order.
func messageRow(id int64, externalID string) valuesRow {
	return valuesRow{
		id, externalID, "C1", "main", "U1", "Ada", "shipping the deck",
		testTime, nil, []byte("[]"), []byte("[]"), []byte("{}"), false,
		false, nil, nil, testTime, testTime,
	}
}

type fakeRows struct {
	rows []valuesRow
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return r.rows[r.pos-1].Scan(dest...)
}

var _ = Describe("messageStore", func() {
	var (
		ctx context.Context
		q   *fakeQuerier
		s   MessageStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		q = &fakeQuerier{}
		s = newMessageStore(q)
	})

	Describe("Upsert", func() {
		var msg *model.Message

		BeforeEach(func() {
			msg = &model.Message{
				ID:          101,
				ExternalID:  "C1/1700000000.000100",
				ChannelID:   "C1",
				ChannelKind: model.ChannelKindMain,
				AuthorID:    "U1",
				AuthorName:  "Ada",
				Text:        "shipping the deck",
				OccurredAt:  testTime,
			}
		})

		It("inserts keyed on the external id and reports a new row as created", func() {
			var gotSQL string
			var gotArgs []any
			q.queryRowFn = func(_ context.Context, sql string, args ...any) pgx.Row {
				gotSQL, gotArgs = sql, args
				return messageRow(101, "C1/1700000000.000100")
			}

			stored, created, err := s.Upsert(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(stored.ID).To(Equal(int64(101)))
			Expect(gotSQL).To(ContainSubstring("ON CONFLICT (external_id) DO UPDATE SET external_id = messages.external_id"))
			Expect(gotSQL).To(ContainSubstring("RETURNING"))
			Expect(gotArgs[0]).To(Equal(int64(101)))
			Expect(gotArgs[1]).To(Equal("C1/1700000000.000100"))
			Expect(gotArgs[3]).To(Equal("main"))
			Expect(string(gotArgs[9].([]byte))).To(Equal("[]"))
			Expect(string(gotArgs[11].([]byte))).To(Equal("{}"))
		})

		It("returns the existing row unchanged on a repeated external id", func() {
			q.queryRowFn = func(context.Context, string, ...any) pgx.Row {
				return messageRow(7, "C1/1700000000.000100")
			}

			stored, created, err := s.Upsert(ctx, msg)

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(stored.ID).To(Equal(int64(7)))
			Expect(stored.Processed).To(BeFalse())
		})

		It("propagates scan failures", func() {
			q.queryRowFn = func(context.Context, string, ...any) pgx.Row {
				return errRow{err: errors.New("connection reset")}
			}

			_, _, err := s.Upsert(ctx, msg)
			Expect(err).To(MatchError("connection reset"))
		})
	})

	Describe("ListUnprocessed", func() {
		It("skips recent rows and puts failed attempts behind untried ones", func() {
			var gotSQL string
			var gotArgs []any
			q.queryFn = func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
				gotSQL, gotArgs = sql, args
				return &fakeRows{rows: []valuesRow{messageRow(1, "C1/1"), messageRow(2, "C1/2")}}, nil
			}
			cutoff := testTime.Add(-2 * time.Minute)

			msgs, err := s.ListUnprocessed(ctx, 10, cutoff)

			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].ID).To(Equal(int64(1)))
			Expect(gotSQL).To(ContainSubstring("processed = FALSE AND created_at < $2"))
			Expect(gotSQL).To(ContainSubstring("ORDER BY last_attempt_at NULLS FIRST, occurred_at, id"))
			Expect(gotArgs).To(Equal([]any{10, cutoff}))
		})

		It("returns an empty slice when nothing is pending", func() {
			q.queryFn = func(context.Context, string, ...any) (pgx.Rows, error) {
				return &fakeRows{}, nil
			}

			msgs, err := s.ListUnprocessed(ctx, 10, testTime)

			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())
			Expect(msgs).NotTo(BeNil())
		})
	})

	Describe("RecordFailedAttempt", func() {
		It("bumps the attempt count of an unprocessed message", func() {
			var gotSQL string
			var gotArgs []any
			q.execFn = func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				gotSQL, gotArgs = sql, args
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}

			Expect(s.RecordFailedAttempt(ctx, 9, testTime)).To(Succeed())
			Expect(gotSQL).To(ContainSubstring("enrich_attempts = enrich_attempts + 1"))
			Expect(gotSQL).To(ContainSubstring("processed = FALSE"))
			Expect(gotArgs).To(Equal([]any{int64(9), testTime}))
		})

		It("reports processed or missing messages as not found", func() {
			q.execFn = func(context.Context, string, ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			}
			Expect(s.RecordFailedAttempt(ctx, 9, testTime)).To(MatchError(ErrNotFound))
		})
	})

	Describe("AppendReaction", func() {
		It("appends the reaction as a one-element JSON array", func() {
			var gotArgs []any
			q.execFn = func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
				gotArgs = args
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}

			err := s.AppendReaction(ctx, "C1/1700000000.000100", model.Reaction{Emoji: "fire", UserID: "U1"})

			Expect(err).NotTo(HaveOccurred())
			Expect(gotArgs[0]).To(Equal("C1/1700000000.000100"))
			Expect(string(gotArgs[1].([]byte))).To(HavePrefix(`[{"at":`))
			Expect(string(gotArgs[1].([]byte))).To(ContainSubstring(`"emoji":"fire"`))
		})

		It("reports unknown messages as not found", func() {
			q.execFn = func(context.Context, string, ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			}
			Expect(s.AppendReaction(ctx, "missing", model.Reaction{})).To(MatchError(ErrNotFound))
		})
	})

	Describe("GetByID", func() {
		It("maps missing rows to ErrNotFound", func() {
			q.queryRowFn = func(context.Context, string, ...any) pgx.Row {
				return errRow{err: pgx.ErrNoRows}
			}
			_, err := s.GetByID(ctx, 1)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("UpdateAnalysis", func() {
		It("marks the message processed with the encoded analysis", func() {
			var gotSQL string
			var gotArgs []any
			q.execFn = func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				gotSQL, gotArgs = sql, args
				return pgconn.NewCommandTag("UPDATE 1"), nil
			}

			err := s.UpdateAnalysis(ctx, 5, model.EmptyAnalysis(), testTime)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotSQL).To(ContainSubstring("processed = TRUE"))
			Expect(gotArgs[0]).To(Equal(int64(5)))
			Expect(string(gotArgs[1].([]byte))).To(ContainSubstring(`"label":"neutral"`))
			Expect(gotArgs[2]).To(Equal(testTime))
		})
	})
})
