package detect

import (
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

// BasicAnalysis scores indicator confluence on the latest bar: RSI extremes,
// MACD and moving-average crosses, Bollinger breaches and a volume kicker.
// One signal is emitted when the additive score clears the floor.
func BasicAnalysis(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 100 {
		return nil
	}

	i := s.Len() - 1
	prev := i - 1
	last := s.Candles[i]

	strength := 0.0
	var reasons []string
	var direction models.Direction

	setBuy := func() {
		if direction != models.DirectionSell {
			direction = models.DirectionBuy
		}
	}
	setSell := func() {
		if direction != models.DirectionBuy {
			direction = models.DirectionSell
		}
	}

	rsi := s.RSI[i]
	if features.Defined(rsi) {
		if rsi < 30 {
			strength += 25
			reasons = append(reasons, fmt.Sprintf("RSI Oversold (%.1f)", rsi))
			direction = models.DirectionBuy
		} else if rsi > 70 {
			strength += 25
			reasons = append(reasons, fmt.Sprintf("RSI Overbought (%.1f)", rsi))
			direction = models.DirectionSell
		}
	}

	if crossedAbove(s.MACD, s.MACDSignal, prev, i) {
		strength += 30
		reasons = append(reasons, "MACD Bullish Cross")
		setBuy()
	} else if crossedBelow(s.MACD, s.MACDSignal, prev, i) {
		strength += 30
		reasons = append(reasons, "MACD Bearish Cross")
		setSell()
	}

	if crossedAbove(s.MA7, s.MA25, prev, i) {
		strength += 25
		reasons = append(reasons, "MA Golden Cross")
		setBuy()
	} else if crossedBelow(s.MA7, s.MA25, prev, i) {
		strength += 25
		reasons = append(reasons, "MA Death Cross")
		setSell()
	}

	if crossedAbove(s.EMA7, s.EMA25, prev, i) {
		strength += 25
		reasons = append(reasons, "EMA Golden Cross")
		setBuy()
	} else if crossedBelow(s.EMA7, s.EMA25, prev, i) {
		strength += 25
		reasons = append(reasons, "EMA Death Cross")
		setSell()
	}

	if features.Defined(s.BBLower[i]) && s.BBLower[i] > 0 && last.Close < s.BBLower[i] {
		strength += 15
		reasons = append(reasons, "Below Bollinger Lower")
		setBuy()
	} else if features.Defined(s.BBUpper[i]) && s.BBUpper[i] > 0 && last.Close > s.BBUpper[i] {
		strength += 15
		reasons = append(reasons, "Above Bollinger Upper")
		setSell()
	}

	if features.Defined(s.VolumeSMA[i]) && s.VolumeSMA[i] > 0 && last.Volume > s.VolumeSMA[i]*2 {
		strength += 10
		reasons = append(reasons, "High Volume")
	}

	if strength < 35 || direction == "" {
		return nil
	}

	ev := models.SignalEvent{
		Source:    models.SourceBasicAnalysis,
		Direction: direction,
		Strength:  clamp(strength, 100),
		Reason:    strings.Join(reasons, " | "),
		Price:     last.Close,
		Index:     i,
		Timestamp: last.Timestamp,
	}
	if features.Defined(rsi) {
		ev.RSI = models.Float64(rsi)
	}
	return []models.SignalEvent{ev}
}

// UTBotAlerts emits a signal when the ATR trailing stop flipped on the latest bar.
func UTBotAlerts(s *features.Series, cfg Config) []models.SignalEvent {
	if s.Len() < 10 {
		return nil
	}

	i := s.Len() - 1
	last := s.Candles[i]

	var events []models.SignalEvent
	if s.UTBuy[i] {
		events = append(events, models.SignalEvent{
			Source:    models.SourceUTBot,
			Direction: models.DirectionBuy,
			Strength:  85,
			Reason:    "UT Bot Alert - BUY Signal",
			Price:     last.Close,
			Index:     i,
			Timestamp: last.Timestamp,
		})
	}
	if s.UTSell[i] {
		events = append(events, models.SignalEvent{
			Source:    models.SourceUTBot,
			Direction: models.DirectionSell,
			Strength:  85,
			Reason:    "UT Bot Alert - SELL Signal",
			Price:     last.Close,
			Index:     i,
			Timestamp: last.Timestamp,
		})
	}
	return events
}

func crossedAbove(a, b []float64, prev, cur int) bool {
	if !features.Defined(a[prev]) || !features.Defined(b[prev]) || !features.Defined(a[cur]) || !features.Defined(b[cur]) {
		return false
	}
	return a[prev] < b[prev] && a[cur] > b[cur]
}

func crossedBelow(a, b []float64, prev, cur int) bool {
	if !features.Defined(a[prev]) || !features.Defined(b[prev]) || !features.Defined(a[cur]) || !features.Defined(b[cur]) {
		return false
	}
	return a[prev] > b[prev] && a[cur] < b[cur]
}
