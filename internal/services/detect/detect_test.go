package detect

import (
	"math"
	"reflect"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/features"
)

var testBase = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func flatCandles(n int, price, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: testBase.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    volume,
		}
	}
	return out
}

func run(d Detector, candles []models.Candle) []models.SignalEvent {
	return d(features.Build(candles), DefaultConfig())
}

func TestSmartMoneyAccumulation(t *testing.T) {
	candles := flatCandles(40, 100, 1000)
	last := &candles[39]
	last.Volume = 3000
	last.Close = 100.2 // +0.2%, quiet price on heavy volume

	events := run(SmartMoney, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceSmartMoneyAccumulation || ev.Direction != models.DirectionBuy {
		t.Fatalf("unexpected event %+v", ev)
	}
	// vol SMA over the 20-bar window including the spike is 1100.
	wantRatio := 3000.0 / 1100.0
	if math.Abs(ev.Strength-wantRatio*30) > 1e-9 {
		t.Fatalf("strength %v", ev.Strength)
	}
	if ev.Index != 39 || ev.Price != 100.2 {
		t.Fatalf("unexpected index/price %+v", ev)
	}
}

func TestSmartMoneyTooShort(t *testing.T) {
	if events := run(SmartMoney, flatCandles(29, 100, 1000)); events != nil {
		t.Fatalf("expected nil below minimum length, got %v", events)
	}
}

func TestOrderBlockStrengthCap(t *testing.T) {
	candles := flatCandles(12, 100, 1000)
	candles[9] = models.Candle{Timestamp: candles[9].Timestamp, Open: 101, High: 101.5, Low: 100, Close: 100.2, Volume: 1000}
	candles[10] = models.Candle{Timestamp: candles[10].Timestamp, Open: 100.5, High: 108.5, Low: 100.4, Close: 108.2, Volume: 1000}

	events := run(OrderBlocks, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceBullishOrderBlock {
		t.Fatalf("source %s", ev.Source)
	}
	// 8.2% move scores 164 raw and is capped at 90.
	if ev.Strength != 90 {
		t.Fatalf("strength %v, want 90", ev.Strength)
	}
	if *ev.BlockTop != 101.5 || *ev.BlockBottom != 100 {
		t.Fatalf("block bounds %v/%v", *ev.BlockTop, *ev.BlockBottom)
	}
	if ev.Reason != "Bullish Order Block (8.2% move)" {
		t.Fatalf("reason %q", ev.Reason)
	}
}

func TestOrderBlockIgnoresSmallMove(t *testing.T) {
	candles := flatCandles(12, 100, 1000)
	candles[9] = models.Candle{Timestamp: candles[9].Timestamp, Open: 100.2, High: 100.25, Low: 99.9, Close: 100, Volume: 1000}
	candles[10] = models.Candle{Timestamp: candles[10].Timestamp, Open: 100.1, High: 100.35, Low: 100, Close: 100.3, Volume: 1000}

	if events := run(OrderBlocks, candles); len(events) != 0 {
		t.Fatalf("expected no events for 0.4%% move, got %v", events)
	}
}

func TestLiquidityHuntBelowSupport(t *testing.T) {
	candles := flatCandles(30, 100, 1000) // lows pinned at 99
	last := &candles[29]
	last.Open = 99.2
	last.Low = 98.5
	last.Close = 99.5

	events := run(LiquidityHunt, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceLiquidityGrabLow || ev.Direction != models.DirectionBuy {
		t.Fatalf("unexpected event %+v", ev)
	}
	depth := (99.0 - 98.5) / 99.0 * 100
	if math.Abs(ev.Strength-(75+depth*10)) > 1e-9 {
		t.Fatalf("strength %v", ev.Strength)
	}
	if ev.StopLoss == nil || math.Abs(*ev.StopLoss-98.5*0.995) > 1e-9 {
		t.Fatalf("stop loss %v", ev.StopLoss)
	}
}

func TestDivergenceBullish(t *testing.T) {
	// Long decline drives RSI down, then a sharp drop followed by a gentle
	// recovery leaves price below its five-bar-ago level while RSI climbs.
	var candles []models.Candle
	price := 100.0
	for i := 0; i < 25; i++ {
		candles = append(candles, bar(len(candles), price))
		price -= 1
	}
	for _, p := range []float64{70, 71, 72, 73, 74} {
		candles = append(candles, bar(len(candles), p))
	}

	events := run(Divergences, candles)
	if len(events) == 0 {
		t.Fatal("expected at least one divergence")
	}
	for _, ev := range events {
		if ev.Source != models.SourceBullishDivergence {
			t.Fatalf("unexpected source %s", ev.Source)
		}
		if ev.Strength != 85 {
			t.Fatalf("strength %v, want 85", ev.Strength)
		}
		if ev.RSI == nil || *ev.RSI >= 40 {
			t.Fatalf("rsi diagnostic %v", ev.RSI)
		}
	}
}

func TestWhaleVolumeSpike(t *testing.T) {
	candles := make([]models.Candle, 65)
	for i := range candles {
		vol := 900.0
		if i%2 == 1 {
			vol = 1100
		}
		candles[i] = bar(i, 100)
		candles[i].Volume = vol
	}
	last := &candles[64]
	last.Volume = 10000
	last.Open = 100
	last.Close = 101 // +1% bar, buying pressure

	events := run(WhaleActivity, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceWhaleBuying || ev.Direction != models.DirectionBuy {
		t.Fatalf("unexpected event %+v", ev)
	}
	// A 10x outlier sits far beyond z=3.75, so strength saturates.
	if ev.Strength != 95 {
		t.Fatalf("strength %v, want 95", ev.Strength)
	}
	if ev.VolumeZScore == nil || *ev.VolumeZScore <= 2.5 {
		t.Fatalf("z-score %v", ev.VolumeZScore)
	}
}

func TestDumpWarningNeedsTwoConditions(t *testing.T) {
	candles := flatCandles(55, 100, 1000)
	last := &candles[54]
	// Long upper wick plus high-volume red candle, two conditions.
	last.Open = 100
	last.Close = 99.8
	last.High = 101.5
	last.Low = 99.7
	last.Volume = 2000

	events := run(DumpWarning, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceDumpWarning || ev.Direction != models.DirectionSell {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Strength != 80 {
		t.Fatalf("strength %v, want 80 for two conditions", ev.Strength)
	}
}

func TestDumpWarningSingleConditionSilent(t *testing.T) {
	candles := flatCandles(55, 100, 1000)
	last := &candles[54]
	last.Open = 100
	last.Close = 99.8
	last.High = 101.5 // wick only, normal volume
	last.Low = 99.7

	if events := run(DumpWarning, candles); len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
}

func TestPumpStartingCompressionBreakout(t *testing.T) {
	candles := flatCandles(100, 100, 1000)
	// Bars 40-69 churn between 95 and 105, the noisy base the detector
	// measures compression against.
	for i := 40; i < 70; i++ {
		c := &candles[i]
		if (i-40)%2 == 0 {
			c.Close = 95
		} else {
			c.Close = 105
		}
		c.High = c.Close + 1
		c.Low = c.Close - 1
	}
	// Bars 70-98 flatten out while volume builds.
	for i := 70; i < 99; i++ {
		candles[i].Volume = 1500
	}
	// Breakout bar clears the 90th-percentile high on a volume spike.
	last := &candles[99]
	last.Close = 107
	last.High = 107.5
	last.Volume = 4500

	events := run(PumpStarting, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourcePumpStarting || ev.Direction != models.DirectionBuy {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Index != 99 || ev.Price != 107 {
		t.Fatalf("index %d price %v", ev.Index, ev.Price)
	}
	// Spike is 4500 over the 20-bar volume mean of 1650.
	spike := 4500.0 / 1650.0
	if math.Abs(ev.Strength-(70+spike*5)) > 1e-9 {
		t.Fatalf("strength %v, want %v", ev.Strength, 70+spike*5)
	}
	if ev.VolumeSpike == nil || *ev.VolumeSpike != 2.73 {
		t.Fatalf("volume spike %v", ev.VolumeSpike)
	}
	if ev.Resistance == nil || math.Abs(*ev.Resistance-106) > 1e-9 {
		t.Fatalf("resistance %v", ev.Resistance)
	}
	if ev.Reason != "Pump Starting! Vol Spike: 2.7x" {
		t.Fatalf("reason %q", ev.Reason)
	}
}

func TestPumpDumpMomentumStrongPump(t *testing.T) {
	candles := make([]models.Candle, 110)
	price := 100.0
	for i := range candles {
		candles[i] = bar(i, price)
		candles[i].Volume = 1000
	}
	// Last 15 bars climb steadily on doubled volume, +7.5% overall.
	for i := 95; i < 110; i++ {
		price += 0.5
		candles[i] = bar(i, price)
		candles[i].Volume = 2000
	}

	events := run(PumpDumpMomentum, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceStrongPump || ev.Direction != models.DirectionBuy {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Momentum == nil || *ev.Momentum != 14 {
		t.Fatalf("momentum %v, want 14", ev.Momentum)
	}
	if ev.PriceChange == nil || *ev.PriceChange <= 5 {
		t.Fatalf("price change %v", ev.PriceChange)
	}
}

func TestBasicAnalysisRSIOversoldWithVolume(t *testing.T) {
	candles := make([]models.Candle, 120)
	price := 300.0
	for i := range candles {
		candles[i] = bar(i, price)
		candles[i].Volume = 1000
		price -= 1 // relentless decline keeps RSI pinned low
	}
	last := &candles[119]
	last.Volume = 5000

	events := run(BasicAnalysis, candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Source != models.SourceBasicAnalysis || ev.Direction != models.DirectionBuy {
		t.Fatalf("unexpected event %+v", ev)
	}
	// RSI oversold (25) plus high volume (10) clears the 35 floor.
	if ev.Strength < 35 || ev.Strength > 100 {
		t.Fatalf("strength %v out of range", ev.Strength)
	}
	if ev.RSI == nil || *ev.RSI >= 30 {
		t.Fatalf("rsi %v, want oversold", ev.RSI)
	}
}

func TestEventCapKeepsMostRecent(t *testing.T) {
	cfg := DefaultConfig()
	// Repeating bullish order-block pattern produces more than five hits.
	candles := flatCandles(40, 100, 1000)
	for i := 5; i+1 < 39; i += 3 {
		candles[i] = models.Candle{Timestamp: candles[i].Timestamp, Open: 101, High: 101.5, Low: 100, Close: 100.2, Volume: 1000}
		candles[i+1] = models.Candle{Timestamp: candles[i+1].Timestamp, Open: 100.5, High: 108.5, Low: 100.4, Close: 108.2, Volume: 1000}
	}

	events := OrderBlocks(features.Build(candles), cfg)
	if len(events) != cfg.MaxEvents {
		t.Fatalf("expected cap of %d events, got %d", cfg.MaxEvents, len(events))
	}
	for i := 1; i < len(events); i++ {
		if !events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Fatal("events out of time order")
		}
	}
}

func TestDetectorsDeterministic(t *testing.T) {
	candles := flatCandles(120, 100, 1000)
	for i := 30; i < 120; i += 7 {
		candles[i].Close = 100 + float64(i%5)
		candles[i].Volume = 1000 + float64(i*13%900)
	}

	for _, d := range All() {
		a := run(d, candles)
		b := run(d, candles)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("detector output not deterministic: %v vs %v", a, b)
		}
	}
}

func TestAllRejectEmptySeries(t *testing.T) {
	for _, d := range All() {
		if events := run(d, nil); events != nil {
			t.Fatalf("expected nil on empty series, got %v", events)
		}
	}
}

func bar(i int, close float64) models.Candle {
	return models.Candle{
		Timestamp: testBase.Add(time.Duration(i) * time.Minute),
		Open:      close + 0.1,
		High:      close + 0.5,
		Low:       close - 0.5,
		Close:     close,
		Volume:    1000,
	}
}
