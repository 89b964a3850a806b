package detect

import (
	"fmt"
	"math"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// SmartMoney flags bars where volume far exceeds its 20-bar average while the
// price barely moves (accumulation) or after price has already run up
// (distribution).
func SmartMoney(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 30 {
		return nil
	}

	closes := s.Closes()
	volumes := s.Volumes()
	volSMA := features.SMA(volumes, 20)

	var events []models.SignalEvent
	for i := 20; i < s.Len(); i++ {
		if !features.Defined(volSMA[i]) || volSMA[i] <= 0 || closes[i-1] <= 0 {
			continue
		}
		ratio := volumes[i] / volSMA[i]
		change := math.Abs((closes[i] - closes[i-1]) / closes[i-1] * 100)

		switch {
		case ratio > cfg.SmartMoneyVolumeRatio && change < 0.5:
			events = append(events, models.SignalEvent{
				Source:    models.SourceSmartMoneyAccumulation,
				Direction: models.DirectionBuy,
				Strength:  clamp(ratio*30, 95),
				Reason:    fmt.Sprintf("Smart Money Accumulation (Vol: %.1fx)", ratio),
				Price:     closes[i],
				Index:     i,
				Timestamp: s.Candles[i].Timestamp,
			})
		case ratio > cfg.SmartMoneyVolumeRatio && change > 2 && closes[i] > closes[i-1]:
			events = append(events, models.SignalEvent{
				Source:    models.SourceSmartMoneyDistribution,
				Direction: models.DirectionSell,
				Strength:  clamp(ratio*25, 90),
				Reason:    fmt.Sprintf("Smart Money Distribution (Vol: %.1fx)", ratio),
				Price:     closes[i],
				Index:     i,
				Timestamp: s.Candles[i].Timestamp,
			})
		}
	}
	return lastN(events, cfg.maxEvents())
}
