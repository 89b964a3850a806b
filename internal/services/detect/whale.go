package detect

import (
	"fmt"
	"math"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// WhaleActivity flags bars whose volume sits far out on its 50-bar rolling
// distribution (z-score), with the same-bar price move deciding direction.
func WhaleActivity(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 60 {
		return nil
	}

	volumes := s.Volumes()
	mean := features.RollingMean(volumes, 50)
	std := features.RollingStd(volumes, 50, 1)

	var events []models.SignalEvent
	for i := 50; i < s.Len(); i++ {
		if !features.Defined(std[i]) || std[i] == 0 || !features.Defined(mean[i]) {
			continue
		}
		z := (volumes[i] - mean[i]) / std[i]
		if z <= cfg.WhaleStdMultiplier {
			continue
		}
		c := s.Candles[i]
		if c.Open <= 0 {
			continue
		}
		change := (c.Close - c.Open) / c.Open * 100
		zr := math.Round(z*100) / 100

		switch {
		case change > 0.3:
			events = append(events, models.SignalEvent{
				Source:       models.SourceWhaleBuying,
				Direction:    models.DirectionBuy,
				Strength:     clamp(65+z*8, 95),
				Reason:       fmt.Sprintf("Whale Buying Detected (Vol Z: %.1f)", z),
				Price:        c.Close,
				Index:        i,
				Timestamp:    c.Timestamp,
				VolumeZScore: models.Float64(zr),
			})
		case change < -0.3:
			events = append(events, models.SignalEvent{
				Source:       models.SourceWhaleSelling,
				Direction:    models.DirectionSell,
				Strength:     clamp(65+z*8, 95),
				Reason:       fmt.Sprintf("Whale Selling Detected (Vol Z: %.1f)", z),
				Price:        c.Close,
				Index:        i,
				Timestamp:    c.Timestamp,
				VolumeZScore: models.Float64(zr),
			})
		}
	}
	return lastN(events, cfg.maxEvents())
}
