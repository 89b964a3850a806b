package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/services/features"
	"SignalDesk/pkg/logger"
)

// ScannerConfig tunes the periodic detection sweep.
type ScannerConfig struct {
	Symbols       []string
	Timeframe     domrepo.Timeframe
	WindowBars    int
	Interval      time.Duration
	TargetPercent float64
	StopPercent   float64
	Horizon       time.Duration
	MinStrength   float64
}

// Scanner sweeps every configured symbol on a fixed interval, runs the
// detector set over the latest bar window and persists plus publishes what
// it finds. One symbol failing never stops the sweep.
type Scanner struct {
	cfg       ScannerConfig
	agg       *SignalAggregator
	candles   domrepo.FeatureStore
	store     domrepo.SignalStore
	publisher domrepo.AlertPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger

	// Windowed detectors keep re-emitting an event until newer bars displace
	// it, so every persisted emission is remembered by its originating bar and
	// skipped on later sweeps.
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewScanner(
	cfg ScannerConfig,
	agg *SignalAggregator,
	candles domrepo.FeatureStore,
	store domrepo.SignalStore,
	publisher domrepo.AlertPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Scanner {
	if cfg.WindowBars <= 0 {
		cfg.WindowBars = 200
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.TargetPercent <= 0 {
		cfg.TargetPercent = 2
	}
	if cfg.StopPercent <= 0 {
		cfg.StopPercent = 1
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = time.Hour
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = domrepo.DefaultTimeframe()
	}
	return &Scanner{
		cfg: cfg, agg: agg, candles: candles, store: store,
		publisher: publisher, metrics: metrics, log: log,
		seen: make(map[string]time.Time),
	}
}

// Run blocks until the context is cancelled, sweeping on every tick. The
// first sweep happens immediately.
func (sc *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(sc.cfg.Interval)
	defer ticker.Stop()

	sc.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sc.Sweep(ctx)
		}
	}
}

// Sweep runs one detection pass over all symbols and returns how many
// signals were persisted.
func (sc *Scanner) Sweep(ctx context.Context) int {
	start := time.Now()
	sc.pruneSeen(start)
	saved := 0
	for _, symbol := range sc.cfg.Symbols {
		n, err := sc.scanSymbol(ctx, symbol)
		if err != nil {
			if sc.log != nil {
				sc.log.Error("symbol scan failed",
					logger.String("symbol", symbol),
					logger.Error(err))
			}
			if sc.metrics != nil {
				sc.metrics.RecordError("scan")
			}
			continue
		}
		saved += n
	}
	if sc.metrics != nil {
		sc.metrics.RecordLatency("sweep", time.Since(start).Seconds())
	}
	return saved
}

func (sc *Scanner) scanSymbol(ctx context.Context, symbol string) (int, error) {
	candles, err := sc.candles.GetLatestNCandles(ctx, symbol, sc.cfg.WindowBars, sc.cfg.Timeframe)
	if err != nil {
		return 0, fmt.Errorf("load candles: %w", err)
	}
	if len(candles) == 0 {
		return 0, nil
	}

	series := features.Build(candles)
	events := sc.agg.Analyze(symbol, series)

	if len(events) > 0 && sc.log != nil {
		rec := sc.agg.CombinedScore(symbol, events, candles[len(candles)-1].Close)
		if rec.Verdict != models.VerdictNeutral {
			sc.log.Info("strong verdict", logger.String("summary", Describe(rec)))
		}
	}

	saved := 0
	for _, ev := range events {
		if ev.Strength < sc.cfg.MinStrength {
			continue
		}
		if sc.seenBefore(eventKey(ev), time.Now()) {
			continue
		}
		if isPumpDumpAlert(ev.Source) {
			if err := sc.persistPumpDump(ctx, ev); err != nil {
				return saved, err
			}
		} else {
			if err := sc.persistSignal(ctx, ev); err != nil {
				return saved, err
			}
		}
		sc.markSeen(eventKey(ev), time.Now())
		saved++
	}
	return saved, nil
}

// eventKey identifies one detector emission by its originating bar.
func eventKey(ev models.SignalEvent) string {
	return ev.Symbol + "|" + ev.Source + "|" + strconv.FormatInt(ev.Timestamp.Unix(), 10)
}

// seenBefore reports whether the emission was already persisted. A known key
// is refreshed so it outlives the event's stay in the detector window.
func (sc *Scanner) seenBefore(key string, now time.Time) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if _, ok := sc.seen[key]; !ok {
		return false
	}
	sc.seen[key] = now
	return true
}

func (sc *Scanner) markSeen(key string, now time.Time) {
	sc.mu.Lock()
	sc.seen[key] = now
	sc.mu.Unlock()
}

// pruneSeen drops keys that no sweep has refreshed within the signal horizon;
// by then the detectors have long stopped emitting them.
func (sc *Scanner) pruneSeen(now time.Time) {
	cutoff := now.Add(-sc.cfg.Horizon)
	sc.mu.Lock()
	for k, at := range sc.seen {
		if at.Before(cutoff) {
			delete(sc.seen, k)
		}
	}
	sc.mu.Unlock()
}

// isPumpDumpAlert picks the momentum alerts that follow the continuation
// lifecycle instead of target/stop tracking.
func isPumpDumpAlert(source string) bool {
	return strings.HasPrefix(source, "STRONG_")
}

func (sc *Scanner) persistSignal(ctx context.Context, ev models.SignalEvent) error {
	tracked := models.NewTrackedSignal(ev, sc.cfg.TargetPercent, sc.cfg.StopPercent, sc.cfg.Horizon, time.Now().UTC())
	id, err := sc.store.SaveSignal(ctx, tracked)
	if err != nil {
		return fmt.Errorf("save signal: %w", err)
	}
	tracked.ID = id

	if sc.metrics != nil {
		sc.metrics.RecordSignal(ev.Source, ev.Symbol)
	}
	if sc.publisher != nil {
		if err := sc.publisher.PublishSignal(ctx, tracked); err != nil {
			// Persisted already, publish failure is not fatal.
			if sc.log != nil {
				sc.log.Warn("signal publish failed",
					logger.String("symbol", ev.Symbol),
					logger.Error(err))
			}
		}
	}
	return nil
}

func (sc *Scanner) persistPumpDump(ctx context.Context, ev models.SignalEvent) error {
	alert := models.PumpDumpAlert{
		Symbol:       ev.Symbol,
		AlertType:    models.AlertPump,
		PriceAtAlert: ev.Price,
		TimePeriod:   string(sc.cfg.Timeframe),
		CreatedAt:    time.Now().UTC(),
		Status:       models.StatusPending,
		Result:       models.ResultUnknown,
	}
	if ev.Direction == models.DirectionSell {
		alert.AlertType = models.AlertDump
	}
	if ev.PriceChange != nil {
		alert.PriceChangePercent = *ev.PriceChange
	}
	if ev.VolumeChange != nil {
		alert.VolumeChangePercent = *ev.VolumeChange
	}
	if ev.Momentum != nil {
		alert.Momentum = *ev.Momentum
	}

	id, err := sc.store.SavePumpDump(ctx, alert)
	if err != nil {
		return fmt.Errorf("save pump/dump alert: %w", err)
	}
	alert.ID = id

	if sc.metrics != nil {
		sc.metrics.RecordSignal(ev.Source, ev.Symbol)
	}
	if sc.publisher != nil {
		if err := sc.publisher.PublishPumpDump(ctx, alert); err != nil {
			if sc.log != nil {
				sc.log.Warn("pump/dump publish failed",
					logger.String("symbol", ev.Symbol),
					logger.Error(err))
			}
		}
	}
	return nil
}
