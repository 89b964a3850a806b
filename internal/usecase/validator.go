package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/logger"
)

const (
	defaultSignalMinAge   = 3 * time.Minute
	defaultPumpDumpMinAge = 5 * time.Minute

	// Expired signals inside this band in either direction are breakeven.
	breakevenBand = 0.5
)

// ValidatorConfig tunes how old a record must be before a validation pass
// considers it. Zero values fall back to the stock minimum ages.
type ValidatorConfig struct {
	SignalMinAge   time.Duration
	PumpDumpMinAge time.Duration
}

// SignalValidator resolves pending signals and pump/dump alerts against live
// prices. Each run is idempotent: the store only hands back pending records,
// and a record that cannot be priced right now stays pending for the next run.
type SignalValidator struct {
	cfg     ValidatorConfig
	store   domrepo.SignalStore
	prices  domrepo.PriceSource
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewSignalValidator(cfg ValidatorConfig, store domrepo.SignalStore, prices domrepo.PriceSource, metrics domrepo.Metrics, log *logger.Logger) *SignalValidator {
	if cfg.SignalMinAge <= 0 {
		cfg.SignalMinAge = defaultSignalMinAge
	}
	if cfg.PumpDumpMinAge <= 0 {
		cfg.PumpDumpMinAge = defaultPumpDumpMinAge
	}
	return &SignalValidator{cfg: cfg, store: store, prices: prices, metrics: metrics, log: log}
}

// ValidateAll runs the signal pass and the pump/dump pass concurrently and
// returns the number of records resolved.
func (v *SignalValidator) ValidateAll(ctx context.Context, now time.Time) (int, error) {
	var wg sync.WaitGroup
	var signalN, pdN int
	var signalErr, pdErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		signalN, signalErr = v.ValidateSignals(ctx, now)
	}()
	go func() {
		defer wg.Done()
		pdN, pdErr = v.ValidatePumpDumps(ctx, now)
	}()
	wg.Wait()

	if signalErr != nil {
		return signalN + pdN, signalErr
	}
	return signalN + pdN, pdErr
}

// ValidateSignals resolves pending tracked signals. A signal hits its target,
// hits its stop, expires, or stays pending when no price is available.
func (v *SignalValidator) ValidateSignals(ctx context.Context, now time.Time) (int, error) {
	pending, err := v.store.PendingSignals(ctx, v.cfg.SignalMinAge)
	if err != nil {
		return 0, fmt.Errorf("load pending signals: %w", err)
	}

	resolved := 0
	for _, s := range pending {
		price, err := v.prices.CurrentPrice(ctx, s.Symbol)
		if err != nil {
			// Stays pending, the next run retries.
			if v.log != nil {
				v.log.Warn("price unavailable, signal deferred",
					logger.String("symbol", s.Symbol),
					logger.Int64("signal_id", s.ID),
					logger.Error(err))
			}
			if v.metrics != nil {
				v.metrics.RecordError("price_lookup")
			}
			continue
		}

		out, terminal := ResolveSignal(s, price, now)
		if !terminal {
			continue
		}
		if err := v.store.UpdateSignalResult(ctx, s.ID, out); err != nil {
			if v.log != nil {
				v.log.Error("signal result write failed",
					logger.Int64("signal_id", s.ID),
					logger.Error(err))
			}
			continue
		}
		if v.metrics != nil {
			v.metrics.RecordValidation(string(out.Result))
		}
		resolved++
	}
	return resolved, nil
}

// ResolveSignal decides the terminal outcome for one pending signal at the
// given price, or reports that it stays pending.
func ResolveSignal(s models.TrackedSignal, price float64, now time.Time) (models.SignalOutcome, bool) {
	profit := profitPercent(s.Direction, s.EntryPrice, price)

	switch {
	case profit >= s.TargetPercent:
		return models.SignalOutcome{
			Status:        models.StatusValidated,
			Result:        models.ResultSuccess,
			ExitPrice:     price,
			ProfitPercent: profit,
			Note:          fmt.Sprintf("target hit at %.8g", price),
		}, true
	case profit <= -s.StopPercent:
		return models.SignalOutcome{
			Status:        models.StatusValidated,
			Result:        models.ResultFailure,
			ExitPrice:     price,
			ProfitPercent: profit,
			Note:          fmt.Sprintf("stop hit at %.8g", price),
		}, true
	case now.After(s.ExpiresAt):
		return models.SignalOutcome{
			Status:        models.StatusExpired,
			Result:        expiryResult(profit),
			ExitPrice:     price,
			ProfitPercent: profit,
			Note:          "expired",
		}, true
	}
	return models.SignalOutcome{}, false
}

func expiryResult(profit float64) models.SignalResult {
	switch {
	case profit > 0:
		return models.ResultSuccess
	case profit < -breakevenBand:
		return models.ResultFailure
	}
	return models.ResultBreakeven
}

// profitPercent is the signed move from entry in the signal's favor.
func profitPercent(dir models.Direction, entry, price float64) float64 {
	if entry == 0 {
		return 0
	}
	p := (price - entry) / entry * 100
	if dir == models.DirectionSell {
		p = -p
	}
	return p
}

// ValidatePumpDumps resolves pending momentum alerts by continuation:
// the alert succeeded when price kept moving in the alerted direction.
func (v *SignalValidator) ValidatePumpDumps(ctx context.Context, now time.Time) (int, error) {
	pending, err := v.store.PendingPumpDumps(ctx, v.cfg.PumpDumpMinAge)
	if err != nil {
		return 0, fmt.Errorf("load pending pump/dump alerts: %w", err)
	}

	resolved := 0
	for _, a := range pending {
		price, err := v.prices.CurrentPrice(ctx, a.Symbol)
		if err != nil {
			if v.log != nil {
				v.log.Warn("price unavailable, alert deferred",
					logger.String("symbol", a.Symbol),
					logger.Int64("alert_id", a.ID),
					logger.Error(err))
			}
			if v.metrics != nil {
				v.metrics.RecordError("price_lookup")
			}
			continue
		}

		out := ResolvePumpDump(a, price)
		if err := v.store.UpdatePumpDumpResult(ctx, a.ID, out); err != nil {
			if v.log != nil {
				v.log.Error("pump/dump result write failed",
					logger.Int64("alert_id", a.ID),
					logger.Error(err))
			}
			continue
		}
		if v.metrics != nil {
			v.metrics.RecordValidation(string(out.Result))
		}
		resolved++
	}
	return resolved, nil
}

// ResolvePumpDump decides whether the alerted move continued.
func ResolvePumpDump(a models.PumpDumpAlert, price float64) models.PumpDumpOutcome {
	change := 0.0
	if a.PriceAtAlert != 0 {
		change = (price - a.PriceAtAlert) / a.PriceAtAlert * 100
	}
	continued := false
	switch a.AlertType {
	case models.AlertPump:
		continued = change > 0
	case models.AlertDump:
		continued = change < 0
	}
	result := models.ResultFailure
	if continued {
		result = models.ResultSuccess
	}
	return models.PumpDumpOutcome{Result: result, Continued: continued, ChangePercent: change}
}
