package detect

import (
	"fmt"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// LiquidityHunt detects stop-loss sweeps: a bar that breaks the prior window's
// extreme intrabar but closes back inside it with a reversal candle.
func LiquidityHunt(s *features.Series, cfg Config) []models.SignalEvent {
	lookback := cfg.LiquidityLookback
	if lookback <= 0 {
		lookback = 20
	}
	if s.Len() < lookback+5 {
		return nil
	}

	var events []models.SignalEvent
	for i := lookback; i < s.Len(); i++ {
		prevHigh, prevLow := windowExtremes(s.Candles[i-lookback : i])
		cur := s.Candles[i]
		if prevLow <= 0 || prevHigh <= 0 {
			continue
		}

		// Sweep below support, bullish close back above it.
		if cur.Low < prevLow && cur.Close > prevLow && cur.Close > cur.Open {
			depth := (prevLow - cur.Low) / prevLow * 100
			events = append(events, models.SignalEvent{
				Source:    models.SourceLiquidityGrabLow,
				Direction: models.DirectionBuy,
				Strength:  clamp(75+depth*10, 95),
				Reason:    fmt.Sprintf("Liquidity Hunt Below Support (%.2f%%)", depth),
				Price:     cur.Close,
				Index:     i,
				Timestamp: cur.Timestamp,
				StopLoss:  models.Float64(cur.Low * 0.995),
			})
		}

		// Sweep above resistance, bearish close back below it.
		if cur.High > prevHigh && cur.Close < prevHigh && cur.Close < cur.Open {
			depth := (cur.High - prevHigh) / prevHigh * 100
			events = append(events, models.SignalEvent{
				Source:    models.SourceLiquidityGrabHigh,
				Direction: models.DirectionSell,
				Strength:  clamp(75+depth*10, 95),
				Reason:    fmt.Sprintf("Liquidity Hunt Above Resistance (%.2f%%)", depth),
				Price:     cur.Close,
				Index:     i,
				Timestamp: cur.Timestamp,
				StopLoss:  models.Float64(cur.High * 1.005),
			})
		}
	}
	return lastN(events, cfg.maxEvents())
}

func windowExtremes(candles []models.Candle) (high, low float64) {
	high, low = candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
