package detect

import (
	"fmt"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

const divergenceLag = 5

// Divergences flags price and RSI moving in opposite directions over a
// five-bar lag, in the oversold/overbought zones where the divergence matters.
func Divergences(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 30 {
		return nil
	}

	closes := s.Closes()

	var events []models.SignalEvent
	for i := divergenceLag * 2; i < s.Len(); i++ {
		rsiNow, rsiThen := s.RSI[i], s.RSI[i-divergenceLag]
		if !features.Defined(rsiNow) || !features.Defined(rsiThen) {
			continue
		}

		if closes[i] < closes[i-divergenceLag] && rsiNow > rsiThen && rsiNow < 40 {
			events = append(events, models.SignalEvent{
				Source:    models.SourceBullishDivergence,
				Direction: models.DirectionBuy,
				Strength:  85,
				Reason:    fmt.Sprintf("RSI Bullish Divergence (RSI: %.1f)", rsiNow),
				Price:     closes[i],
				Index:     i,
				Timestamp: s.Candles[i].Timestamp,
				RSI:       models.Float64(rsiNow),
			})
		}

		if closes[i] > closes[i-divergenceLag] && rsiNow < rsiThen && rsiNow > 60 {
			events = append(events, models.SignalEvent{
				Source:    models.SourceBearishDivergence,
				Direction: models.DirectionSell,
				Strength:  85,
				Reason:    fmt.Sprintf("RSI Bearish Divergence (RSI: %.1f)", rsiNow),
				Price:     closes[i],
				Index:     i,
				Timestamp: s.Candles[i].Timestamp,
				RSI:       models.Float64(rsiNow),
			})
		}
	}
	return lastN(events, cfg.maxEvents())
}
