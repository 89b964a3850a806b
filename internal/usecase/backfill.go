package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/service/exchange"
	"SignalDesk/pkg/logger"
)

// Backfiller keeps the candle store topped up from the exchange REST API,
// so a fresh deployment has enough history for the detectors' lookbacks.
type Backfiller struct {
	rest      *exchange.Client
	candles   domrepo.FeatureStore
	symbols   []string
	timeframe domrepo.Timeframe
	bars      int
	interval  time.Duration
	log       *logger.Logger
}

func NewBackfiller(rest *exchange.Client, candles domrepo.FeatureStore, symbols []string, tf domrepo.Timeframe, bars int, interval time.Duration, log *logger.Logger) *Backfiller {
	if bars <= 0 {
		bars = 500
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if tf == "" {
		tf = domrepo.DefaultTimeframe()
	}
	return &Backfiller{rest: rest, candles: candles, symbols: symbols, timeframe: tf, bars: bars, interval: interval, log: log}
}

// Run backfills immediately and then on every tick until cancelled.
func (b *Backfiller) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	if err := b.FillAll(ctx); err != nil && b.log != nil {
		b.log.Warn("initial backfill incomplete", logger.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.FillAll(ctx); err != nil && b.log != nil {
				b.log.Warn("backfill incomplete", logger.Error(err))
			}
		}
	}
}

// FillAll fetches and stores the trailing bar window for every symbol.
// The first failure is returned after all symbols were attempted.
func (b *Backfiller) FillAll(ctx context.Context) error {
	var firstErr error
	for _, symbol := range b.symbols {
		if err := b.fill(ctx, symbol); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if b.log != nil {
				b.log.Warn("symbol backfill failed",
					logger.String("symbol", symbol),
					logger.Error(err))
			}
		}
	}
	return firstErr
}

func (b *Backfiller) fill(ctx context.Context, symbol string) error {
	candles, err := b.rest.Klines(ctx, symbol, string(b.timeframe), b.bars)
	if err != nil {
		return fmt.Errorf("fetch klines: %w", err)
	}
	if len(candles) == 0 {
		return nil
	}
	if err := b.candles.SaveCandles(ctx, candles, b.timeframe); err != nil {
		return fmt.Errorf("store candles: %w", err)
	}
	return nil
}
