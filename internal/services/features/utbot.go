package features

import "math"

// UTBot computes the ATR trailing-stop columns used by the UT Bot alert.
// The scan is an explicit fold: the carried state is the prior stop level and
// prior position, threaded through as accumulator values rather than mutated
// in place. Buy/sell flags mark bars where the position flips.
func UTBot(highs, lows, closes []float64, keyValue float64, atrPeriod int) (stop []float64, pos []int, buy, sell []bool) {
	n := len(closes)
	stop = make([]float64, n)
	pos = make([]int, n)
	buy = make([]bool, n)
	sell = make([]bool, n)
	if n < atrPeriod+5 {
		return stop, pos, buy, sell
	}

	atr := ATR(highs, lows, closes, atrPeriod)

	prevStop := 0.0
	for i := 1; i < n; i++ {
		loss := 0.0
		if Defined(atr[i]) {
			loss = keyValue * atr[i]
		}
		cur, prev := closes[i], closes[i-1]
		var next float64
		switch {
		case cur > prevStop && prev > prevStop:
			next = math.Max(prevStop, cur-loss)
		case cur < prevStop && prev < prevStop:
			next = math.Min(prevStop, cur+loss)
		case cur > prevStop:
			next = cur - loss
		default:
			next = cur + loss
		}
		stop[i] = next
		prevStop = next
	}

	prevPos := 0
	for i := 1; i < n; i++ {
		cur, prev := closes[i], closes[i-1]
		stopPrev := stop[i-1]
		switch {
		case prev < stopPrev && cur > stopPrev:
			pos[i] = 1
		case prev > stopPrev && cur < stopPrev:
			pos[i] = -1
		default:
			pos[i] = prevPos
		}
		buy[i] = pos[i] == 1 && prevPos != 1
		sell[i] = pos[i] == -1 && prevPos != -1
		prevPos = pos[i]
	}

	return stop, pos, buy, sell
}
