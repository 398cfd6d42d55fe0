package service

import (
	"log/slog"
	"time"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/ingest"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/queue"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
)

type Services struct {
	stores     *store.Stores
	normalizer *ingest.Normalizer
	producer   queue.Producer
	loc        *time.Location
	scanLimit  uint64
}

func NewServices(stores *store.Stores, normalizer *ingest.Normalizer, producer queue.Producer, loc *time.Location, scanLimit uint64) *Services {
	return &Services{
		stores:     stores,
		normalizer: normalizer,
		producer:   producer,
		loc:        loc,
		scanLimit:  scanLimit,
	}
}

func (s *Services) Ingest() IngestService {
	return NewIngestService(s.stores.Messages(), s.normalizer, s.producer, slog.Default())
}

func (s *Services) Dashboard() DashboardService {
	return NewDashboardService(s.stores.Rollups(), s.loc, s.scanLimit)
}
