package usecase

import (
	"context"
	"encoding/json"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

// KafkaCandlesHandler consumes externally produced candles and writes them
// to the candle store. It lets another collector own the OHLCV aggregation
// while this service only detects on top of it.
type KafkaCandlesHandler struct {
	topic   string
	candles domrepo.FeatureStore
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, candles domrepo.FeatureStore, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, candles: candles, metrics: metrics}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, tf, t, o, h, l, c, v}
func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol    string  `json:"symbol"`
		Timeframe string  `json:"tf"`
		T         int64   `json:"t"`
		O         float64 `json:"o"`
		H         float64 `json:"h"`
		L         float64 `json:"l"`
		C         float64 `json:"c"`
		V         float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}

	start := time.Now()
	err := h.candles.SaveCandles(ctx, []models.Candle{{
		Timestamp: time.Unix(m.T, 0).UTC(),
		Symbol:    m.Symbol,
		Open:      m.O,
		High:      m.H,
		Low:       m.L,
		Close:     m.C,
		Volume:    m.V,
	}}, domrepo.NormalizeTimeframe(m.Timeframe))
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
