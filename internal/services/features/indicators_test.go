package features

import (
	"math"
	"testing"

	"SignalDesk/internal/domain/models"
)

func approx(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if Defined(out[0]) || Defined(out[1]) {
		t.Fatalf("expected NaN before first full window")
	}
	approx(t, out[2], 2, 1e-12)
	approx(t, out[3], 3, 1e-12)
	approx(t, out[4], 4, 1e-12)
}

func TestSMAWindowLargerThanInput(t *testing.T) {
	out := SMA([]float64{1, 2}, 3)
	for i, v := range out {
		if Defined(v) {
			t.Fatalf("expected NaN at %d, got %v", i, v)
		}
	}
}

func TestEMASeededWithSMA(t *testing.T) {
	out := EMA([]float64{1, 2, 3, 4}, 2)
	if Defined(out[0]) {
		t.Fatalf("expected NaN before seed")
	}
	approx(t, out[1], 1.5, 1e-12)
	approx(t, out[2], 2.5, 1e-12)
	approx(t, out[3], 3.5, 1e-12)
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 14)
	if Defined(out[13]) {
		t.Fatalf("expected NaN before lookback")
	}
	approx(t, out[14], 100, 1e-12)
	approx(t, out[19], 100, 1e-12)
}

func TestRSIWilderSmoothing(t *testing.T) {
	out := RSI([]float64{1, 2, 1, 2}, 2)
	// First two diffs are +1 and -1, so gains and losses balance.
	approx(t, out[2], 50, 1e-12)
	// Third diff is +1: avgGain (0.5+1)/2, avgLoss 0.5/2, rs=3.
	approx(t, out[3], 75, 1e-12)
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	line, sig, hist := MACD(closes, 12, 26, 9)
	last := len(closes) - 1
	approx(t, line[last], 0, 1e-12)
	approx(t, sig[last], 0, 1e-12)
	approx(t, hist[last], 0, 1e-12)
}

func TestBollingerFlatSeriesCollapses(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	upper, middle, lower := Bollinger(closes, 20, 2)
	approx(t, middle[24], 100, 1e-12)
	approx(t, upper[24], 100, 1e-12)
	approx(t, lower[24], 100, 1e-12)
}

func TestATRConstantRange(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100
		highs[i] = 101
		lows[i] = 99
	}
	out := ATR(highs, lows, closes, 14)
	if Defined(out[13]) {
		t.Fatalf("expected NaN before lookback")
	}
	approx(t, out[14], 2, 1e-12)
	approx(t, out[19], 2, 1e-12)
}

func TestStochasticFlatRangeIsMidpoint(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100
		highs[i] = 100
		lows[i] = 100
	}
	k, d := Stochastic(highs, lows, closes, 14, 3)
	approx(t, k[19], 50, 1e-12)
	approx(t, d[19], 50, 1e-12)
}

func TestRollingStdDdof(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	sample := RollingStd(values, 3, 1)
	approx(t, sample[2], 1, 1e-12)
	approx(t, sample[3], 1, 1e-12)

	population := RollingStd(values, 3, 0)
	approx(t, population[2], math.Sqrt(2.0/3.0), 1e-12)
}

func TestMeanAndStd(t *testing.T) {
	approx(t, Mean([]float64{2, 4, 6}), 4, 1e-12)
	approx(t, Std([]float64{2, 4, 6}), 2, 1e-12)
	approx(t, Mean(nil), 0, 1e-12)
	approx(t, Std([]float64{5}), 0, 1e-12)
}

func TestQuantileInterpolation(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	approx(t, Quantile(values, 0), 1, 1e-12)
	approx(t, Quantile(values, 1), 4, 1e-12)
	approx(t, Quantile(values, 0.5), 2.5, 1e-12)
	approx(t, Quantile(values, 0.9), 3.7, 1e-12)
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Fatalf("expected NaN for empty input")
	}
}

func TestUTBotFlipsToBuyOnBreakout(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < 20; i++ {
		closes[i] = 100 - float64(i)
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
	}
	for i := 20; i < n; i++ {
		closes[i] = 120
		highs[i] = 121
		lows[i] = 119
	}

	_, pos, buy, sell := UTBot(highs, lows, closes, 1, 10)

	if !buy[20] {
		t.Fatalf("expected buy flag on breakout bar")
	}
	buys := 0
	for i := range buy {
		if buy[i] {
			buys++
		}
		if sell[i] {
			t.Fatalf("unexpected sell flag at %d", i)
		}
	}
	if buys != 1 {
		t.Fatalf("expected exactly one buy flag, got %d", buys)
	}
	if pos[n-1] != 1 {
		t.Fatalf("expected long position at the end, got %d", pos[n-1])
	}
}

func TestUTBotShortInputIsSilent(t *testing.T) {
	closes := []float64{1, 2, 3}
	_, _, buy, sell := UTBot(closes, closes, closes, 1, 10)
	for i := range buy {
		if buy[i] || sell[i] {
			t.Fatalf("expected no flags on short input")
		}
	}
}

func TestBuildColumnsParallel(t *testing.T) {
	candles := make([]models.Candle, 120)
	for i := range candles {
		price := 100 + float64(i)*0.1
		candles[i] = models.Candle{
			Symbol: "BTCUSDT",
			Open:   price,
			High:   price + 0.5,
			Low:    price - 0.5,
			Close:  price,
			Volume: 1000,
		}
	}
	s := Build(candles)
	if s.Len() != len(candles) {
		t.Fatalf("unexpected length %d", s.Len())
	}
	for name, col := range map[string][]float64{
		"ma7": s.MA7, "ema25": s.EMA25, "rsi": s.RSI,
		"macd": s.MACD, "bb_upper": s.BBUpper, "atr": s.ATR,
		"volume_sma": s.VolumeSMA, "stoch_k": s.StochK, "ut_stop": s.UTStop,
	} {
		if len(col) != len(candles) {
			t.Fatalf("column %s not parallel: %d", name, len(col))
		}
	}
	if !Defined(s.RSI[119]) || !Defined(s.MA99[119]) {
		t.Fatalf("expected defined indicator values at the last bar")
	}
}
