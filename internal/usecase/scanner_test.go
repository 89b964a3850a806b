package usecase

import (
	"context"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/services/detect"
)

type fakeCandles struct {
	bySymbol map[string][]models.Candle
}

func (f *fakeCandles) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return f.bySymbol[symbol], nil
}

func (f *fakeCandles) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	return f.bySymbol[symbol], nil
}

func (f *fakeCandles) SaveCandles(ctx context.Context, candles []models.Candle, tf domrepo.Timeframe) error {
	return nil
}

type fakePublisher struct {
	signals []models.TrackedSignal
	alerts  []models.PumpDumpAlert
}

func (f *fakePublisher) PublishSignal(ctx context.Context, s models.TrackedSignal) error {
	f.signals = append(f.signals, s)
	return nil
}

func (f *fakePublisher) PublishPumpDump(ctx context.Context, a models.PumpDumpAlert) error {
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// accumulationCandles ends with a heavy-volume quiet bar that trips the
// smart-money detector.
func accumulationCandles(n int) []models.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: 1000,
		}
	}
	out[n-1].Volume = 5000
	out[n-1].Close = 100.2
	return out
}

func TestSweepPersistsAndPublishes(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	sc := NewScanner(
		ScannerConfig{Symbols: []string{"BTCUSDT"}},
		agg,
		&fakeCandles{bySymbol: map[string][]models.Candle{"BTCUSDT": accumulationCandles(60)}},
		store,
		pub,
		nil,
		nil,
	)

	saved := sc.Sweep(context.Background())
	if saved == 0 {
		t.Fatal("expected at least one persisted signal")
	}
	if len(store.signals) != saved {
		t.Fatalf("store has %d signals, sweep reported %d", len(store.signals), saved)
	}
	if len(pub.signals) != saved {
		t.Fatalf("published %d, want %d", len(pub.signals), saved)
	}

	s := store.signals[0]
	if s.Symbol != "BTCUSDT" || s.Status != models.StatusPending {
		t.Fatalf("tracked signal %+v", s)
	}
	if s.TargetPercent != 2 || s.StopPercent != 1 {
		t.Fatalf("default target/stop not applied: %+v", s)
	}
	if s.Direction == models.DirectionBuy && s.TargetPrice <= s.EntryPrice {
		t.Fatalf("target price %v below entry %v", s.TargetPrice, s.EntryPrice)
	}
}

func TestSweepDoesNotRepersistUnchangedEvents(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	sc := NewScanner(
		ScannerConfig{Symbols: []string{"BTCUSDT"}},
		agg,
		&fakeCandles{bySymbol: map[string][]models.Candle{"BTCUSDT": accumulationCandles(60)}},
		store,
		pub,
		nil,
		nil,
	)

	first := sc.Sweep(context.Background())
	if first == 0 {
		t.Fatal("expected the first sweep to persist")
	}
	if second := sc.Sweep(context.Background()); second != 0 {
		t.Fatalf("second sweep over the same window persisted %d", second)
	}
	if len(store.signals) != first {
		t.Fatalf("store grew to %d, want %d", len(store.signals), first)
	}
	if len(pub.signals) != first {
		t.Fatalf("published %d, want %d", len(pub.signals), first)
	}
}

func TestSweepMinStrengthFilter(t *testing.T) {
	store := newFakeStore()
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	sc := NewScanner(
		ScannerConfig{Symbols: []string{"BTCUSDT"}, MinStrength: 99},
		agg,
		&fakeCandles{bySymbol: map[string][]models.Candle{"BTCUSDT": accumulationCandles(60)}},
		store,
		nil,
		nil,
		nil,
	)

	if saved := sc.Sweep(context.Background()); saved != 0 {
		t.Fatalf("saved %d, want 0 under the strength floor", saved)
	}
}

func TestSweepEmptySymbolIsQuiet(t *testing.T) {
	store := newFakeStore()
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	sc := NewScanner(
		ScannerConfig{Symbols: []string{"NOPE"}},
		agg,
		&fakeCandles{bySymbol: map[string][]models.Candle{}},
		store,
		nil,
		nil,
		nil,
	)

	if saved := sc.Sweep(context.Background()); saved != 0 {
		t.Fatalf("saved %d, want 0 for symbol without candles", saved)
	}
}

func TestNewTrackedSignalSellTargets(t *testing.T) {
	now := time.Now()
	ev := models.SignalEvent{
		Symbol:    "ETHUSDT",
		Source:    models.SourceWhaleSelling,
		Direction: models.DirectionSell,
		Strength:  80,
		Price:     2000,
	}
	s := models.NewTrackedSignal(ev, 2, 1, time.Hour, now)
	if s.TargetPrice != 2000*0.98 || s.StopPrice != 2000*1.01 {
		t.Fatalf("sell target/stop %v/%v", s.TargetPrice, s.StopPrice)
	}
	if s.Category != models.CategoryAdvanced {
		t.Fatalf("category %s", s.Category)
	}
	if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiry %v", s.ExpiresAt)
	}
}
