package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
)

// SignalStore is the persistence contract for tracked signals and pump/dump
// alerts. Pending queries must never return terminal-status records; that is
// what makes validator terminal writes idempotent.
type SignalStore interface {
	SaveSignal(ctx context.Context, s models.TrackedSignal) (int64, error)
	SavePumpDump(ctx context.Context, a models.PumpDumpAlert) (int64, error)

	PendingSignals(ctx context.Context, minAge time.Duration) ([]models.TrackedSignal, error)
	PendingPumpDumps(ctx context.Context, minAge time.Duration) ([]models.PumpDumpAlert, error)

	UpdateSignalResult(ctx context.Context, id int64, out models.SignalOutcome) error
	UpdatePumpDumpResult(ctx context.Context, id int64, out models.PumpDumpOutcome) error

	AccuracyStats(ctx context.Context, window time.Duration) (models.AccuracyStats, error)
	SignalHistory(ctx context.Context, symbol string, category models.SignalCategory, limit int) ([]models.TrackedSignal, error)
	PumpDumpHistory(ctx context.Context, limit int) ([]models.PumpDumpAlert, error)
}

// PriceSource answers "what does this symbol trade at right now". A lookup
// failure is non-fatal; the caller defers the signal to the next tick.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// AlertPublisher pushes emitted signals and alerts onto the message bus.
type AlertPublisher interface {
	PublishSignal(ctx context.Context, s models.TrackedSignal) error
	PublishPumpDump(ctx context.Context, a models.PumpDumpAlert) error
	Close() error
}

// MarketStream is a live ticker feed from the exchange.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Ticker, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational measurements.
type Metrics interface {
	RecordSignal(source, symbol string)
	RecordValidation(result string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
