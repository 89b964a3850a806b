package detect

import (
	"fmt"
	"math"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// PumpStarting looks for the fingerprint of an engineered pump: volatility
// compression with volume expansion in the latest 30 bars versus the 30
// before, a close above the 90th-percentile resistance of the last 50 highs,
// and a fresh volume spike against the 20-bar average.
func PumpStarting(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 100 {
		return nil
	}

	closes := s.Closes()
	volumes := s.Volumes()
	n := s.Len()

	recentCloses := closes[n-30:]
	olderCloses := closes[n-60 : n-30]
	recentVol := coeffVariation(recentCloses)
	olderVol := coeffVariation(olderCloses)
	if olderVol <= 0 || recentVol >= olderVol*0.7 {
		return nil
	}

	recentVolume := features.Mean(volumes[n-30:])
	olderVolume := features.Mean(volumes[n-60 : n-30])
	if olderVolume <= 0 || recentVolume <= olderVolume*1.2 {
		return nil
	}

	resistance := features.Quantile(s.Highs()[n-50:], 0.9)
	last := s.Candles[n-1]
	if !(last.Close > resistance) {
		return nil
	}

	avgVol := features.Mean(volumes[n-20:])
	if avgVol <= 0 {
		return nil
	}
	spike := last.Volume / avgVol
	if spike <= 1.5 {
		return nil
	}
	spikeR := math.Round(spike*100) / 100

	return []models.SignalEvent{{
		Source:      models.SourcePumpStarting,
		Direction:   models.DirectionBuy,
		Strength:    clamp(70+spike*5, 95),
		Reason:      fmt.Sprintf("Pump Starting! Vol Spike: %.1fx", spike),
		Price:       last.Close,
		Index:       n - 1,
		Timestamp:   last.Timestamp,
		Resistance:  models.Float64(resistance),
		VolumeSpike: models.Float64(spikeR),
	}}
}

// DumpWarning scores three independent exhaustion conditions on the latest
// bar and alerts when at least two hold.
func DumpWarning(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 50 {
		return nil
	}

	n := s.Len()
	last := s.Candles[n-1]
	rsi := s.RSI[n-1]

	conditions := 0
	var reasons []string

	if features.Defined(rsi) && rsi > 75 {
		conditions++
		reasons = append(reasons, fmt.Sprintf("RSI: %.1f", rsi))
	}

	upperWick := last.High - math.Max(last.Open, last.Close)
	body := math.Abs(last.Close - last.Open)
	if body > 0 && upperWick > body*2 {
		conditions++
		reasons = append(reasons, "Long Upper Wick")
	}

	avgVol := features.Mean(s.Volumes()[n-20:])
	if avgVol > 0 && last.Volume > avgVol*1.5 && last.Close < last.Open {
		conditions++
		reasons = append(reasons, "High Vol Selling")
	}

	if conditions < 2 {
		return nil
	}

	ev := models.SignalEvent{
		Source:    models.SourceDumpWarning,
		Direction: models.DirectionSell,
		Strength:  clamp(40+float64(conditions)*20, 90),
		Reason:    "Dump Warning! " + strings.Join(reasons, " | "),
		Price:     last.Close,
		Index:     n - 1,
		Timestamp: last.Timestamp,
	}
	if features.Defined(rsi) {
		ev.RSI = models.Float64(rsi)
	}
	return []models.SignalEvent{ev}
}

// PumpDumpMomentum measures the net move over a trailing window together with
// volume expansion against the 100-bar average and a per-bar directional
// tally, alerting on strongly confirmed pumps and dumps.
func PumpDumpMomentum(s *features.Series, cfg Config) []models.SignalEvent {
	window := cfg.PumpDumpWindow
	if window <= 0 {
		window = 15
	}
	threshold := cfg.PumpDumpThreshold
	if threshold <= 0 {
		threshold = 5
	}
	if s.Len() < window+10 {
		return nil
	}

	closes := s.Closes()
	volumes := s.Volumes()
	n := s.Len()
	recent := closes[n-window:]

	start, end := recent[0], recent[len(recent)-1]
	if start <= 0 {
		return nil
	}
	priceChange := (end - start) / start * 100

	lookback := 100
	if n < lookback {
		lookback = n
	}
	avgVolume := features.Mean(volumes[n-lookback:])
	recentVolume := features.Mean(volumes[n-window:])
	volumeChange := 0.0
	if avgVolume > 0 {
		volumeChange = (recentVolume - avgVolume) / avgVolume * 100
	}

	momentum := 0
	for i := 1; i < window; i++ {
		if recent[i] > recent[i-1] {
			momentum++
		} else {
			momentum--
		}
	}

	last := s.Candles[n-1]
	pcR := math.Round(priceChange*100) / 100
	vcR := math.Round(volumeChange*100) / 100

	switch {
	case priceChange >= threshold && volumeChange > 50 && float64(momentum) > float64(window)*0.5:
		return []models.SignalEvent{{
			Source:       models.SourceStrongPump,
			Direction:    models.DirectionBuy,
			Strength:     clamp(70+priceChange*3, 95),
			Reason:       fmt.Sprintf("STRONG PUMP! +%.1f%% | Vol +%.0f%%", priceChange, volumeChange),
			Price:        end,
			Index:        n - 1,
			Timestamp:    last.Timestamp,
			PriceChange:  models.Float64(pcR),
			VolumeChange: models.Float64(vcR),
			Momentum:     models.Int(momentum),
		}}
	case priceChange <= -threshold && volumeChange > 50 && float64(momentum) < -float64(window)*0.5:
		return []models.SignalEvent{{
			Source:       models.SourceStrongDump,
			Direction:    models.DirectionSell,
			Strength:     clamp(70+math.Abs(priceChange)*3, 95),
			Reason:       fmt.Sprintf("STRONG DUMP! %.1f%% | Vol +%.0f%%", priceChange, volumeChange),
			Price:        end,
			Index:        n - 1,
			Timestamp:    last.Timestamp,
			PriceChange:  models.Float64(pcR),
			VolumeChange: models.Float64(vcR),
			Momentum:     models.Int(momentum),
		}}
	}
	return nil
}

// coeffVariation is std/mean of the slice, 0 when the mean is zero.
func coeffVariation(values []float64) float64 {
	m := features.Mean(values)
	if m == 0 {
		return 0
	}
	return features.Std(values) / m
}
