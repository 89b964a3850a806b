package usecase

import (
	"fmt"
	"sort"
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/detect"
	"SignalDesk/internal/services/features"
	"SignalDesk/pkg/logger"
)

// categoryWeight pairs a source substring with its score multiplier. Lookup
// takes the first match, so ordering is the precedence.
type categoryWeight struct {
	substr string
	weight float64
}

var categoryWeights = []categoryWeight{
	{"LIQUIDITY_GRAB", 1.5},
	{"SMART_MONEY", 1.4},
	{"DIVERGENCE", 1.3},
	{"WHALE", 1.2},
	{"ORDER_BLOCK", 1.1},
	{"PUMP", 1.0},
	{"DUMP", 1.0},
}

func weightFor(source string) float64 {
	for _, cw := range categoryWeights {
		if strings.Contains(source, cw.substr) {
			return cw.weight
		}
	}
	return 1.0
}

// SignalAggregator runs the detector set over a feature series and folds the
// findings into a per-symbol recommendation.
type SignalAggregator struct {
	detectors []detect.Detector
	cfg       detect.Config
	log       *logger.Logger
}

func NewSignalAggregator(cfg detect.Config, log *logger.Logger) *SignalAggregator {
	return &SignalAggregator{detectors: detect.All(), cfg: cfg, log: log}
}

// Analyze evaluates every detector against the series and tags all findings
// with the symbol. A panicking detector is logged and skipped, never aborting
// the others.
func (a *SignalAggregator) Analyze(symbol string, s *features.Series) []models.SignalEvent {
	var out []models.SignalEvent
	for _, d := range a.detectors {
		events := a.runDetector(symbol, d, s)
		out = append(out, events...)
	}
	for i := range out {
		out[i].Symbol = symbol
	}
	return out
}

func (a *SignalAggregator) runDetector(symbol string, d detect.Detector, s *features.Series) (events []models.SignalEvent) {
	defer func() {
		if r := recover(); r != nil {
			if a.log != nil {
				a.log.Error("detector panic",
					logger.String("symbol", symbol),
					logger.Any("panic", r))
			}
			events = nil
		}
	}()
	return d(s, a.cfg)
}

// Best returns the topN strongest events, ties broken by recency. The input
// slice is left untouched.
func (a *SignalAggregator) Best(events []models.SignalEvent, topN int) []models.SignalEvent {
	if topN <= 0 || len(events) == 0 {
		return nil
	}
	sorted := make([]models.SignalEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Strength != sorted[j].Strength {
			return sorted[i].Strength > sorted[j].Strength
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}

// CombinedScore folds all events for one symbol into a weighted buy/sell
// tally and a verdict. Reasons carry at most the first five contributors of
// the winning side, in emission order.
func (a *SignalAggregator) CombinedScore(symbol string, events []models.SignalEvent, price float64) models.Recommendation {
	rec := models.Recommendation{
		Symbol:  symbol,
		Verdict: models.VerdictNeutral,
		Price:   price,
	}

	var buyReasons, sellReasons []string
	for _, ev := range events {
		weighted := ev.Strength * weightFor(ev.Source)
		switch ev.Direction {
		case models.DirectionBuy:
			rec.BuyScore += weighted
			buyReasons = append(buyReasons, ev.Reason)
		case models.DirectionSell:
			rec.SellScore += weighted
			sellReasons = append(sellReasons, ev.Reason)
		}
	}

	switch {
	case rec.BuyScore > rec.SellScore && rec.BuyScore > 80:
		rec.Verdict = models.VerdictStrongBuy
		rec.Confidence = confidence(rec.BuyScore)
		rec.Reasons = topReasons(buyReasons, 5)
	case rec.SellScore > rec.BuyScore && rec.SellScore > 80:
		rec.Verdict = models.VerdictStrongSell
		rec.Confidence = confidence(rec.SellScore)
		rec.Reasons = topReasons(sellReasons, 5)
	}
	return rec
}

func confidence(score float64) float64 {
	c := score / 3
	if c > 95 {
		c = 95
	}
	return c
}

func topReasons(reasons []string, n int) []string {
	if len(reasons) > n {
		reasons = reasons[:n]
	}
	return reasons
}

// Describe renders a recommendation as a one-line summary for alert payloads.
func Describe(rec models.Recommendation) string {
	return fmt.Sprintf("%s %s (buy %.1f / sell %.1f, confidence %.1f)",
		rec.Symbol, rec.Verdict, rec.BuyScore, rec.SellScore, rec.Confidence)
}
