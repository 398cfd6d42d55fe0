package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/model"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/rollup"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
	digestDateLayout     = "2006-01-02"
)

var (
	ErrInvalidChannelKind = errors.New("invalid channel kind")
	ErrInvalidDate        = errors.New("invalid date")
)

type Dashboard struct {
	LastUpdated     time.Time                `json:"last_updated"`
	TodayActivity   []rollup.ChannelActivity `json:"today_activity"`
	Deliverables    []rollup.Deliverable     `json:"deliverables"`
	UrgentItems     []rollup.UrgentItem      `json:"urgent_items"`
	ClientSentiment rollup.SentimentSummary  `json:"client_sentiment"`
}

type DigestView struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Date        string                 `json:"date"`
	Summary     []rollup.ChannelDigest `json:"summary"`
}

type DeliverablesView struct {
	ByStatus     map[model.DeliverableStatus]int `json:"by_status"`
	Deliverables []rollup.Deliverable            `json:"deliverables"`
	Total        int                             `json:"total"`
}

// DashboardService serves the read-only views over stored messages.
type DashboardService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Activity(ctx context.Context, kind model.ChannelKind, limit, offset int) ([]model.Message, error)
	Workload(ctx context.Context) ([]rollup.WorkloadEntry, error)
	// Digest summarizes one calendar day given as YYYY-MM-DD. An empty
	// date means today.
	Digest(ctx context.Context, date string) (*DigestView, error)
	Deliverables(ctx context.Context) (*DeliverablesView, error)
}

type dashboardService struct {
	rollups   store.RollupStore
	loc       *time.Location
	scanLimit uint64
	now       func() time.Time
}

func NewDashboardService(rollups store.RollupStore, loc *time.Location, scanLimit uint64) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{
		rollups:   rollups,
		loc:       loc,
		scanLimit: scanLimit,
		now:       time.Now,
	}
}

func (s *dashboardService) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	today := rollup.TodayWindow(now, s.loc)
	trailing := rollup.TrailingDayWindow(now)

	activity, err := s.rollups.ChannelActivity(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("loading today's activity: %w", err)
	}

	analyzed, err := s.recentAnalyzed(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.rollups.ListMessages(ctx, store.MessageFilter{
		Since:        trailing.Since,
		Until:        trailing.Until,
		AnalyzedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading trailing day: %w", err)
	}

	return &Dashboard{
		TodayActivity:   activity,
		Deliverables:    rollup.MergeDeliverables(analyzed),
		ClientSentiment: rollup.Sentiment(recent, model.ChannelKindClient, trailing),
		UrgentItems:     rollup.UrgentQueue(recent, trailing),
		LastUpdated:     now.UTC(),
	}, nil
}

func (s *dashboardService) Activity(ctx context.Context, kind model.ChannelKind, limit, offset int) ([]model.Message, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannelKind, kind)
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	limit = min(limit, MaxActivityLimit)
	offset = max(offset, 0)

	msgs, err := s.rollups.ListMessages(ctx, store.MessageFilter{
		ChannelKind: kind,
		NewestFirst: true,
		Limit:       uint64(limit),
		Offset:      uint64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s activity: %w", kind, err)
	}
	return msgs, nil
}

func (s *dashboardService) Workload(ctx context.Context) ([]rollup.WorkloadEntry, error) {
	analyzed, err := s.recentAnalyzed(ctx)
	if err != nil {
		return nil, err
	}
	return rollup.Workload(analyzed), nil
}

func (s *dashboardService) Digest(ctx context.Context, date string) (*DigestView, error) {
	day := s.now().In(s.loc)
	if date != "" {
		parsed, err := time.ParseInLocation(digestDateLayout, date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		day = parsed
	}

	w := rollup.CalendarDayWindow(day, s.loc)
	msgs, err := s.rollups.ListMessages(ctx, store.MessageFilter{Since: w.Since, Until: w.Until})
	if err != nil {
		return nil, fmt.Errorf("loading digest messages: %w", err)
	}

	return &DigestView{
		Date:        w.Since.Format(digestDateLayout),
		Summary:     rollup.Digest(msgs, w),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *dashboardService) Deliverables(ctx context.Context) (*DeliverablesView, error) {
	analyzed, err := s.recentAnalyzed(ctx)
	if err != nil {
		return nil, err
	}

	merged := rollup.MergeDeliverables(analyzed)
	return &DeliverablesView{
		Deliverables: merged,
		Total:        len(merged),
		ByStatus:     rollup.CountByStatus(merged),
	}, nil
}

// recentAnalyzed returns the newest scanLimit analyzed messages in
// chronological order, which the merge tie-break relies on.
func (s *dashboardService) recentAnalyzed(ctx context.Context) ([]model.Message, error) {
	msgs, err := s.rollups.ListMessages(ctx, store.MessageFilter{
		AnalyzedOnly: true,
		NewestFirst:  true,
		Limit:        s.scanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("loading analyzed messages: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}
