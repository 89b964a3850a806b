// Package detect holds the pattern detectors: pure, stateless scanners over an
// immutable feature series. Each detector returns at most the MaxEvents most
// recent qualifying events in time order, rejects series shorter than its
// minimum lookback by returning nil, and skips positions whose derived values
// are undefined instead of aborting the scan.
package detect

import (
	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// Config carries the externally tunable detector parameters.
type Config struct {
	SmartMoneyVolumeRatio float64 `yaml:"smart_money_volume_ratio"`
	LiquidityLookback     int     `yaml:"liquidity_lookback"`
	WhaleStdMultiplier    float64 `yaml:"whale_std_multiplier"`
	PumpDumpThreshold     float64 `yaml:"pump_dump_threshold"`
	PumpDumpWindow        int     `yaml:"pump_dump_window"`
	MaxEvents             int     `yaml:"max_events"`
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		SmartMoneyVolumeRatio: 2.0,
		LiquidityLookback:     20,
		WhaleStdMultiplier:    2.5,
		PumpDumpThreshold:     5,
		PumpDumpWindow:        15,
		MaxEvents:             5,
	}
}

func (c Config) maxEvents() int {
	if c.MaxEvents <= 0 {
		return 5
	}
	return c.MaxEvents
}

// Detector is a pure scan over a feature series.
type Detector func(s *features.Series, cfg Config) []models.SignalEvent

// All returns the full detector set in a fixed evaluation order.
func All() []Detector {
	return []Detector{
		SmartMoney,
		OrderBlocks,
		LiquidityHunt,
		Divergences,
		WhaleActivity,
		PumpStarting,
		DumpWarning,
		PumpDumpMomentum,
		BasicAnalysis,
		UTBotAlerts,
	}
}

// lastN keeps the n most recent events, preserving time order.
func lastN(events []models.SignalEvent, n int) []models.SignalEvent {
	if len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}

func clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
