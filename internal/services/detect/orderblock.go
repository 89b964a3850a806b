package detect

import (
	"fmt"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// OrderBlocks finds candles preceding a strong reversal whose range is treated
// as a future support/resistance zone: an opposite-colored bar i-1 followed by
// a bar i that closes beyond bar i-1's extreme.
func OrderBlocks(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 10 {
		return nil
	}

	var events []models.SignalEvent
	for i := 3; i < s.Len()-1; i++ {
		prev, cur := s.Candles[i-1], s.Candles[i]

		// Bullish: red candle, then a green candle closing above its high.
		if prev.Close < prev.Open && cur.Close > cur.Open && cur.Close > prev.High {
			if prev.Low <= 0 {
				continue
			}
			move := (cur.Close - prev.Low) / prev.Low * 100
			if move > 0.5 {
				events = append(events, models.SignalEvent{
					Source:      models.SourceBullishOrderBlock,
					Direction:   models.DirectionBuy,
					Strength:    clamp(move*20, 90),
					Reason:      fmt.Sprintf("Bullish Order Block (%.1f%% move)", move),
					Price:       cur.Close,
					Index:       i,
					Timestamp:   cur.Timestamp,
					BlockTop:    models.Float64(prev.High),
					BlockBottom: models.Float64(prev.Low),
				})
			}
		}

		// Bearish: green candle, then a red candle closing below its low.
		if prev.Close > prev.Open && cur.Close < cur.Open && cur.Close < prev.Low {
			if prev.High <= 0 {
				continue
			}
			move := (prev.High - cur.Close) / prev.High * 100
			if move > 0.5 {
				events = append(events, models.SignalEvent{
					Source:      models.SourceBearishOrderBlock,
					Direction:   models.DirectionSell,
					Strength:    clamp(move*20, 90),
					Reason:      fmt.Sprintf("Bearish Order Block (%.1f%% move)", move),
					Price:       cur.Close,
					Index:       i,
					Timestamp:   cur.Timestamp,
					BlockTop:    models.Float64(prev.High),
					BlockBottom: models.Float64(prev.Low),
				})
			}
		}
	}
	return lastN(events, cfg.maxEvents())
}
