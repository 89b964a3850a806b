package features

import (
	"SignalDesk/internal/domain/models"
)

// Series is a bar sequence augmented with derived indicator columns. Columns
// are parallel to Candles; positions before an indicator's minimum lookback
// hold NaN. The series is an immutable snapshot, detectors read it only.
type Series struct {
	Candles []models.Candle

	MA7, MA25, MA99    []float64
	EMA7, EMA25, EMA99 []float64

	RSI []float64

	MACD, MACDSignal, MACDHist []float64

	BBUpper, BBMiddle, BBLower []float64

	ATR       []float64
	VolumeSMA []float64

	StochK, StochD []float64

	// UT Bot trailing stop columns, see utbot.go.
	UTStop []float64
	UTPos  []int
	UTBuy  []bool
	UTSell []bool
}

// Build computes all derived columns for the given bars.
func Build(candles []models.Candle) *Series {
	s := &Series{Candles: candles}

	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()
	volumes := s.Volumes()

	s.MA7 = SMA(closes, 7)
	s.MA25 = SMA(closes, 25)
	s.MA99 = SMA(closes, 99)
	s.EMA7 = EMA(closes, 7)
	s.EMA25 = EMA(closes, 25)
	s.EMA99 = EMA(closes, 99)
	s.RSI = RSI(closes, 14)
	s.MACD, s.MACDSignal, s.MACDHist = MACD(closes, 12, 26, 9)
	s.BBUpper, s.BBMiddle, s.BBLower = Bollinger(closes, 20, 2)
	s.ATR = ATR(highs, lows, closes, 14)
	s.VolumeSMA = SMA(volumes, 20)
	s.StochK, s.StochD = Stochastic(highs, lows, closes, 14, 3)
	s.UTStop, s.UTPos, s.UTBuy, s.UTSell = UTBot(highs, lows, closes, 1, 10)

	return s
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Candles) }

func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

func (s *Series) Opens() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Open
	}
	return out
}

func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High
	}
	return out
}

func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low
	}
	return out
}

func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}
