package models

import (
	"strings"
	"time"
)

// Signal lifecycle states. A signal leaves pending exactly once.
type SignalStatus string

const (
	StatusPending   SignalStatus = "pending"
	StatusValidated SignalStatus = "validated"
	StatusExpired   SignalStatus = "expired"
)

type SignalResult string

const (
	ResultUnknown   SignalResult = "unknown"
	ResultSuccess   SignalResult = "success"
	ResultFailure   SignalResult = "failure"
	ResultBreakeven SignalResult = "breakeven"
)

type SignalCategory string

const (
	CategoryBasic    SignalCategory = "BASIC"
	CategoryAdvanced SignalCategory = "ADVANCED"
	CategoryPumpDump SignalCategory = "PUMP_DUMP"
)

// CategoryForSource derives the category from the detector source type.
func CategoryForSource(source string) SignalCategory {
	for _, k := range []string{"SMART_MONEY", "ORDER_BLOCK", "LIQUIDITY", "DIVERGENCE", "WHALE"} {
		if strings.Contains(source, k) {
			return CategoryAdvanced
		}
	}
	if strings.Contains(source, "PUMP") || strings.Contains(source, "DUMP") {
		return CategoryPumpDump
	}
	return CategoryBasic
}

// TrackedSignal is the persisted long-lived record of an emitted signal.
// It is written once at emission and mutated exactly once when the validator
// reaches a terminal status.
type TrackedSignal struct {
	ID            int64
	Symbol        string
	Direction     Direction
	Source        string
	Category      SignalCategory
	Strength      float64
	Reason        string
	EntryPrice    float64
	TargetPercent float64
	StopPercent   float64
	TargetPrice   float64
	StopPrice     float64
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ValidatedAt   *time.Time
	Status        SignalStatus
	Result        SignalResult
	ExitPrice     *float64
	ProfitPercent *float64
	Note          string

	RSIValue     *float64
	VolumeZScore *float64
}

// NewTrackedSignal builds a pending record from a detector event. Target and
// stop prices are derived from the entry at creation time.
func NewTrackedSignal(ev SignalEvent, targetPct, stopPct float64, horizon time.Duration, now time.Time) TrackedSignal {
	t := TrackedSignal{
		Symbol:        ev.Symbol,
		Direction:     ev.Direction,
		Source:        ev.Source,
		Category:      CategoryForSource(ev.Source),
		Strength:      ev.Strength,
		Reason:        ev.Reason,
		EntryPrice:    ev.Price,
		TargetPercent: targetPct,
		StopPercent:   stopPct,
		CreatedAt:     now,
		ExpiresAt:     now.Add(horizon),
		Status:        StatusPending,
		Result:        ResultUnknown,
		RSIValue:      ev.RSI,
		VolumeZScore:  ev.VolumeZScore,
	}
	if ev.Direction == DirectionBuy {
		t.TargetPrice = ev.Price * (1 + targetPct/100)
		t.StopPrice = ev.Price * (1 - stopPct/100)
	} else {
		t.TargetPrice = ev.Price * (1 - targetPct/100)
		t.StopPrice = ev.Price * (1 + stopPct/100)
	}
	return t
}

// SignalOutcome is the terminal write applied by the validator.
type SignalOutcome struct {
	Status        SignalStatus
	Result        SignalResult
	ExitPrice     float64
	ProfitPercent float64
	Note          string
}

// Pump/dump alert types.
type AlertType string

const (
	AlertPump AlertType = "PUMP"
	AlertDump AlertType = "DUMP"
)

// PumpDumpAlert is the persisted momentum alert. Resolved by continuation
// versus reversal rather than target/stop.
type PumpDumpAlert struct {
	ID                  int64
	Symbol              string
	AlertType           AlertType
	PriceAtAlert        float64
	PriceChangePercent  float64
	VolumeChangePercent float64
	Momentum            int
	TimePeriod          string
	CreatedAt           time.Time
	ValidatedAt         *time.Time
	Continued           *bool
	ReversalPercent     *float64
	MaxContinuation     *float64
	Status              SignalStatus
	Result              SignalResult
}

// PumpDumpOutcome is the terminal write for an alert.
type PumpDumpOutcome struct {
	Result        SignalResult
	Continued     bool
	ChangePercent float64
}

// AccuracyStats summarizes signal outcomes over a trailing window.
type AccuracyStats struct {
	PeriodHours  int
	TotalSignals int
	Successful   int
	Failed       int
	Pending      int
	SuccessRate  float64
	FailureRate  float64
	AvgProfit    float64 // average profit% of successful signals
	ByCategory   map[string]CategoryStats
	CalculatedAt time.Time
}

// CategoryStats is a per-category success breakdown.
type CategoryStats struct {
	Total   int
	Success int
	Rate    float64
}
