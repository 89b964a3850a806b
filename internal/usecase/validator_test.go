package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
)

type fakeStore struct {
	mu        sync.Mutex
	signals   []models.TrackedSignal
	alerts    []models.PumpDumpAlert
	sigWrites map[int64]models.SignalOutcome
	pdWrites  map[int64]models.PumpDumpOutcome

	sigMinAge time.Duration
	pdMinAge  time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sigWrites: map[int64]models.SignalOutcome{},
		pdWrites:  map[int64]models.PumpDumpOutcome{},
	}
}

func (f *fakeStore) SaveSignal(ctx context.Context, s models.TrackedSignal) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = int64(len(f.signals) + 1)
	f.signals = append(f.signals, s)
	return s.ID, nil
}

func (f *fakeStore) SavePumpDump(ctx context.Context, a models.PumpDumpAlert) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.alerts) + 1)
	f.alerts = append(f.alerts, a)
	return a.ID, nil
}

func (f *fakeStore) PendingSignals(ctx context.Context, minAge time.Duration) ([]models.TrackedSignal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigMinAge = minAge
	var out []models.TrackedSignal
	for _, s := range f.signals {
		if _, done := f.sigWrites[s.ID]; !done && s.Status == models.StatusPending {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingPumpDumps(ctx context.Context, minAge time.Duration) ([]models.PumpDumpAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdMinAge = minAge
	var out []models.PumpDumpAlert
	for _, a := range f.alerts {
		if _, done := f.pdWrites[a.ID]; !done && a.Status == models.StatusPending {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSignalResult(ctx context.Context, id int64, out models.SignalOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigWrites[id] = out
	return nil
}

func (f *fakeStore) UpdatePumpDumpResult(ctx context.Context, id int64, out models.PumpDumpOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pdWrites[id] = out
	return nil
}

func (f *fakeStore) AccuracyStats(ctx context.Context, window time.Duration) (models.AccuracyStats, error) {
	return models.AccuracyStats{}, nil
}

func (f *fakeStore) SignalHistory(ctx context.Context, symbol string, category models.SignalCategory, limit int) ([]models.TrackedSignal, error) {
	return nil, nil
}

func (f *fakeStore) PumpDumpHistory(ctx context.Context, limit int) ([]models.PumpDumpAlert, error) {
	return nil, nil
}

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return p, nil
}

func pendingSignal(id int64, dir models.Direction, entry float64, expired bool, now time.Time) models.TrackedSignal {
	expires := now.Add(30 * time.Minute)
	if expired {
		expires = now.Add(-time.Minute)
	}
	return models.TrackedSignal{
		ID:            id,
		Symbol:        fmt.Sprintf("SYM%d", id),
		Direction:     dir,
		EntryPrice:    entry,
		TargetPercent: 2,
		StopPercent:   1,
		CreatedAt:     now.Add(-time.Hour),
		ExpiresAt:     expires,
		Status:        models.StatusPending,
		Result:        models.ResultUnknown,
	}
}

func TestResolveSignalTargetHit(t *testing.T) {
	now := time.Now()
	s := pendingSignal(1, models.DirectionBuy, 100, false, now)

	out, terminal := ResolveSignal(s, 102.5, now)
	if !terminal {
		t.Fatal("expected terminal outcome")
	}
	if out.Status != models.StatusValidated || out.Result != models.ResultSuccess {
		t.Fatalf("outcome %+v", out)
	}
	if out.ProfitPercent != 2.5 {
		t.Fatalf("profit %v", out.ProfitPercent)
	}
}

func TestResolveSignalStopHitSell(t *testing.T) {
	now := time.Now()
	s := pendingSignal(1, models.DirectionSell, 100, false, now)

	// Price rose 1.5%, which is -1.5% for a SELL.
	out, terminal := ResolveSignal(s, 101.5, now)
	if !terminal {
		t.Fatal("expected terminal outcome")
	}
	if out.Status != models.StatusValidated || out.Result != models.ResultFailure {
		t.Fatalf("outcome %+v", out)
	}
	if out.ProfitPercent != -1.5 {
		t.Fatalf("profit %v", out.ProfitPercent)
	}
}

func TestResolveSignalExpiry(t *testing.T) {
	now := time.Now()
	cases := []struct {
		price float64
		want  models.SignalResult
	}{
		{100.5, models.ResultSuccess},   // +0.5% at expiry
		{99.7, models.ResultBreakeven},  // -0.3%, inside the band
		{100.0, models.ResultBreakeven}, // flat
	}
	for _, c := range cases {
		s := pendingSignal(1, models.DirectionBuy, 100, true, now)
		out, terminal := ResolveSignal(s, c.price, now)
		if !terminal {
			t.Fatalf("price %v: expected terminal", c.price)
		}
		if out.Result != c.want {
			t.Fatalf("price %v: result %s, want %s", c.price, out.Result, c.want)
		}
	}
}

func TestResolveSignalStopBeatsExpiry(t *testing.T) {
	now := time.Now()
	s := pendingSignal(1, models.DirectionBuy, 100, true, now)
	out, _ := ResolveSignal(s, 99.0, now)
	if out.Status != models.StatusValidated || out.Result != models.ResultFailure {
		t.Fatalf("stop must take precedence over expiry: %+v", out)
	}
}

func TestResolveSignalStaysPending(t *testing.T) {
	now := time.Now()
	s := pendingSignal(1, models.DirectionBuy, 100, false, now)
	if _, terminal := ResolveSignal(s, 100.5, now); terminal {
		t.Fatal("in-band unexpired signal must stay pending")
	}
}

func TestValidateSignalsPriceUnavailable(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.signals = []models.TrackedSignal{pendingSignal(1, models.DirectionBuy, 100, false, now)}
	v := NewSignalValidator(ValidatorConfig{}, store, &fakePrices{prices: map[string]float64{}}, nil, nil)

	n, err := v.ValidateSignals(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("resolved %d, want 0", n)
	}
	if len(store.sigWrites) != 0 {
		t.Fatal("no terminal write expected without a price")
	}
}

func TestValidateSignalsIdempotent(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.signals = []models.TrackedSignal{pendingSignal(1, models.DirectionBuy, 100, false, now)}
	v := NewSignalValidator(ValidatorConfig{}, store, &fakePrices{prices: map[string]float64{"SYM1": 103}}, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := v.ValidateSignals(context.Background(), now); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(store.sigWrites) != 1 {
		t.Fatalf("terminal writes %d, want exactly 1", len(store.sigWrites))
	}
}

func TestValidatorMinAgesConfigurable(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	prices := &fakePrices{prices: map[string]float64{}}

	v := NewSignalValidator(ValidatorConfig{}, store, prices, nil, nil)
	if _, err := v.ValidateAll(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.sigMinAge != defaultSignalMinAge || store.pdMinAge != defaultPumpDumpMinAge {
		t.Fatalf("default min ages %v/%v", store.sigMinAge, store.pdMinAge)
	}

	v = NewSignalValidator(ValidatorConfig{
		SignalMinAge:   10 * time.Minute,
		PumpDumpMinAge: 20 * time.Minute,
	}, store, prices, nil, nil)
	if _, err := v.ValidateAll(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.sigMinAge != 10*time.Minute || store.pdMinAge != 20*time.Minute {
		t.Fatalf("configured min ages %v/%v", store.sigMinAge, store.pdMinAge)
	}
}

func TestResolvePumpDump(t *testing.T) {
	pump := models.PumpDumpAlert{AlertType: models.AlertPump, PriceAtAlert: 100}
	out := ResolvePumpDump(pump, 104)
	if !out.Continued || out.Result != models.ResultSuccess {
		t.Fatalf("pump continuation: %+v", out)
	}
	if out.ChangePercent != 4 {
		t.Fatalf("change %v", out.ChangePercent)
	}

	out = ResolvePumpDump(pump, 97)
	if out.Continued || out.Result != models.ResultFailure {
		t.Fatalf("pump reversal: %+v", out)
	}

	dump := models.PumpDumpAlert{AlertType: models.AlertDump, PriceAtAlert: 100}
	if out = ResolvePumpDump(dump, 95); !out.Continued || out.Result != models.ResultSuccess {
		t.Fatalf("dump continuation: %+v", out)
	}
}

func TestValidateAllRunsBothPasses(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	store.signals = []models.TrackedSignal{pendingSignal(1, models.DirectionBuy, 100, false, now)}
	store.alerts = []models.PumpDumpAlert{{
		ID: 1, Symbol: "SYM1", AlertType: models.AlertPump, PriceAtAlert: 100,
		CreatedAt: now.Add(-time.Hour), Status: models.StatusPending, Result: models.ResultUnknown,
	}}
	v := NewSignalValidator(ValidatorConfig{}, store, &fakePrices{prices: map[string]float64{"SYM1": 103}}, nil, nil)

	n, err := v.ValidateAll(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("resolved %d, want 2", n)
	}
	if len(store.sigWrites) != 1 || len(store.pdWrites) != 1 {
		t.Fatalf("writes %d/%d", len(store.sigWrites), len(store.pdWrites))
	}
}
