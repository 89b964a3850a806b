package usecase

import (
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/detect"
	"SignalDesk/internal/services/features"
)

func event(source string, dir models.Direction, strength float64, reason string, at time.Time) models.SignalEvent {
	return models.SignalEvent{Source: source, Direction: dir, Strength: strength, Reason: reason, Timestamp: at}
}

func TestWeightForPrecedence(t *testing.T) {
	cases := []struct {
		source string
		want   float64
	}{
		{"LIQUIDITY_GRAB_LOW", 1.5},
		{"SMART_MONEY_ACCUMULATION", 1.4},
		{"BULLISH_DIVERGENCE", 1.3},
		{"WHALE_BUYING", 1.2},
		{"BEARISH_ORDER_BLOCK", 1.1},
		{"PUMP_STARTING", 1.0},
		{"DUMP_WARNING", 1.0},
		{"BASIC_ANALYSIS", 1.0},
		{"UT_BOT", 1.0},
	}
	for _, c := range cases {
		if got := weightFor(c.source); got != c.want {
			t.Fatalf("weightFor(%s) = %v, want %v", c.source, got, c.want)
		}
	}
}

func TestCombinedScoreStrongBuy(t *testing.T) {
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	now := time.Now()
	events := []models.SignalEvent{
		event(models.SourceLiquidityGrabLow, models.DirectionBuy, 80, "grab", now),
		event(models.SourceWhaleSelling, models.DirectionSell, 50, "whale out", now),
	}

	rec := agg.CombinedScore("BTCUSDT", events, 50000)
	if rec.Verdict != models.VerdictStrongBuy {
		t.Fatalf("verdict %s", rec.Verdict)
	}
	if rec.BuyScore != 80*1.5 {
		t.Fatalf("buy score %v", rec.BuyScore)
	}
	if rec.SellScore != 50*1.2 {
		t.Fatalf("sell score %v", rec.SellScore)
	}
	if rec.Confidence != 40 {
		t.Fatalf("confidence %v, want buy score / 3", rec.Confidence)
	}
	if len(rec.Reasons) != 1 || rec.Reasons[0] != "grab" {
		t.Fatalf("reasons %v", rec.Reasons)
	}
}

func TestCombinedScoreNeutralBelowThreshold(t *testing.T) {
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	events := []models.SignalEvent{
		event(models.SourceBullishOrderBlock, models.DirectionBuy, 70, "ob", time.Now()),
	}
	// 70 * 1.1 = 77, under the 80 floor.
	rec := agg.CombinedScore("ETHUSDT", events, 3000)
	if rec.Verdict != models.VerdictNeutral {
		t.Fatalf("verdict %s, want NEUTRAL", rec.Verdict)
	}
	if rec.Confidence != 0 || rec.Reasons != nil {
		t.Fatalf("neutral verdict must carry no confidence or reasons: %+v", rec)
	}
}

func TestCombinedScoreConfidenceCap(t *testing.T) {
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	var events []models.SignalEvent
	for i := 0; i < 5; i++ {
		events = append(events, event(models.SourceLiquidityGrabLow, models.DirectionBuy, 90, "grab", time.Now()))
	}
	rec := agg.CombinedScore("BTCUSDT", events, 50000)
	if rec.Confidence != 95 {
		t.Fatalf("confidence %v, want cap at 95", rec.Confidence)
	}
}

func TestCombinedScoreReasonsTopFive(t *testing.T) {
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	var events []models.SignalEvent
	for i := 0; i < 7; i++ {
		events = append(events, event(models.SourceWhaleBuying, models.DirectionBuy, 90, string(rune('a'+i)), time.Now()))
	}
	rec := agg.CombinedScore("BTCUSDT", events, 50000)
	if len(rec.Reasons) != 5 {
		t.Fatalf("reasons %v, want first five", rec.Reasons)
	}
	if rec.Reasons[0] != "a" || rec.Reasons[4] != "e" {
		t.Fatalf("reasons out of emission order: %v", rec.Reasons)
	}
}

func TestBestOrdersByStrengthThenRecency(t *testing.T) {
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	now := time.Now()
	events := []models.SignalEvent{
		event(models.SourceWhaleBuying, models.DirectionBuy, 70, "old", now.Add(-time.Hour)),
		event(models.SourcePumpStarting, models.DirectionBuy, 90, "strong", now.Add(-2*time.Hour)),
		event(models.SourceWhaleBuying, models.DirectionBuy, 70, "fresh", now),
	}

	best := agg.Best(events, 2)
	if len(best) != 2 {
		t.Fatalf("len %d", len(best))
	}
	if best[0].Reason != "strong" || best[1].Reason != "fresh" {
		t.Fatalf("order %v / %v", best[0].Reason, best[1].Reason)
	}
	// Input must be untouched.
	if events[0].Reason != "old" {
		t.Fatal("input slice mutated")
	}
}

func TestAnalyzeTagsSymbolAndSurvivesPanic(t *testing.T) {
	agg := NewSignalAggregator(detect.DefaultConfig(), nil)
	agg.detectors = []detect.Detector{
		func(s *features.Series, cfg detect.Config) []models.SignalEvent {
			panic("boom")
		},
		func(s *features.Series, cfg detect.Config) []models.SignalEvent {
			return []models.SignalEvent{{Source: models.SourceUTBot, Direction: models.DirectionBuy, Strength: 85}}
		},
	}

	events := agg.Analyze("BTCUSDT", features.Build(nil))
	if len(events) != 1 {
		t.Fatalf("expected surviving detector output, got %d events", len(events))
	}
	if events[0].Symbol != "BTCUSDT" {
		t.Fatalf("symbol not tagged: %+v", events[0])
	}
}
