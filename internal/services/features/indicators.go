package features

import "math"

// Rolling indicator primitives. Every function returns a slice parallel to its
// input where positions before the indicator's minimum lookback are NaN;
// consumers skip NaN positions instead of aborting a scan.

// SMA computes a simple moving average over the trailing window.
func SMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the SMA of the first
// full window. Leading NaNs in the input are skipped.
func EMA(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	start := firstDefined(values)
	if start < 0 || len(values)-start < window {
		return out
	}
	sum := 0.0
	for i := start; i < start+window; i++ {
		sum += values[i]
	}
	prev := sum / float64(window)
	out[start+window-1] = prev
	alpha := 2.0 / float64(window+1)
	for i := start + window; i < len(values); i++ {
		prev = (values[i]-prev)*alpha + prev
		out[i] = prev
	}
	return out
}

// RSI computes the relative strength index with Wilder smoothing.
func RSI(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 || len(closes) < window+1 {
		return out
	}
	var avgGain, avgLoss float64
	for i := 1; i <= window; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)
	out[window] = rsiValue(avgGain, avgLoss)
	for i := window + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes the MACD line, signal line and histogram for the standard
// (fast, slow, signal) windows.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}
	sig = EMA(line, signal)
	hist = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(line[i]) && !math.IsNaN(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// Bollinger computes the upper, middle and lower bands using a population
// standard deviation, matching the conventional band definition.
func Bollinger(closes []float64, window int, mult float64) (upper, middle, lower []float64) {
	middle = SMA(closes, window)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	std := RollingStd(closes, window, 0)
	for i := range closes {
		if !math.IsNaN(middle[i]) && !math.IsNaN(std[i]) {
			upper[i] = middle[i] + mult*std[i]
			lower[i] = middle[i] - mult*std[i]
		}
	}
	return upper, middle, lower
}

// ATR computes the average true range with Wilder smoothing.
func ATR(highs, lows, closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 || len(closes) < window+1 {
		return out
	}
	tr := make([]float64, len(closes))
	tr[0] = highs[0] - lows[0]
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	sum := 0.0
	for i := 1; i <= window; i++ {
		sum += tr[i]
	}
	prev := sum / float64(window)
	out[window] = prev
	for i := window + 1; i < len(closes); i++ {
		prev = (prev*float64(window-1) + tr[i]) / float64(window)
		out[i] = prev
	}
	return out
}

// Stochastic computes %K over the trailing window and %D as an SMA of %K.
func Stochastic(highs, lows, closes []float64, window, smooth int) (k, d []float64) {
	k = nanSlice(len(closes))
	for i := window - 1; i < len(closes); i++ {
		hh := highs[i]
		ll := lows[i]
		for j := i - window + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = (closes[i] - ll) / (hh - ll) * 100
	}
	d = smaSkipNaN(k, smooth)
	return k, d
}

// RollingMean computes a trailing-window mean.
func RollingMean(values []float64, window int) []float64 {
	return SMA(values, window)
}

// RollingStd computes a trailing-window standard deviation. ddof 1 gives the
// sample deviation, ddof 0 the population deviation.
func RollingStd(values []float64, window, ddof int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum, sum2 := 0.0, 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
			sum2 += values[j] * values[j]
		}
		n := float64(window)
		mean := sum / n
		variance := (sum2 - n*mean*mean) / (n - float64(ddof))
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Std returns the sample standard deviation, or 0 when fewer than two values.
func Std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	sum2 := 0.0
	for _, v := range values {
		d := v - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(values)-1))
}

// Quantile returns the q-quantile of values using linear interpolation
// between order statistics.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	insertionSort(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func insertionSort(a []float64) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

// smaSkipNaN averages the trailing window only once it holds no NaN.
func smaSkipNaN(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// Defined reports whether v carries a usable value.
func Defined(v float64) bool { return !math.IsNaN(v) }
