package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

// KafkaSignalPublisher pushes emitted signals and pump/dump alerts onto
// Kafka topics, keyed by symbol so one symbol stays ordered.
type KafkaSignalPublisher struct {
	producer      *pkgkafka.Producer
	signalTopic   string
	pumpDumpTopic string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, signalTopic, pumpDumpTopic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, signalTopic: signalTopic, pumpDumpTopic: pumpDumpTopic}
}

type signalMessage struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	Source     string    `json:"source"`
	Category   string    `json:"category"`
	Strength   float64   `json:"strength"`
	Reason     string    `json:"reason"`
	EntryPrice float64   `json:"entry_price"`
	Target     float64   `json:"target_price"`
	Stop       float64   `json:"stop_price"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type pumpDumpMessage struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	AlertType    string    `json:"alert_type"`
	Price        float64   `json:"price"`
	PriceChange  float64   `json:"price_change_percent"`
	VolumeChange float64   `json:"volume_change_percent"`
	Momentum     int       `json:"momentum"`
	TimePeriod   string    `json:"time_period"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, s models.TrackedSignal) error {
	return p.producer.Publish(ctx, p.signalTopic, []byte(s.Symbol), signalMessage{
		ID:         s.ID,
		Symbol:     s.Symbol,
		Direction:  string(s.Direction),
		Source:     s.Source,
		Category:   string(s.Category),
		Strength:   s.Strength,
		Reason:     s.Reason,
		EntryPrice: s.EntryPrice,
		Target:     s.TargetPrice,
		Stop:       s.StopPrice,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
	})
}

func (p *KafkaSignalPublisher) PublishPumpDump(ctx context.Context, a models.PumpDumpAlert) error {
	return p.producer.Publish(ctx, p.pumpDumpTopic, []byte(a.Symbol), pumpDumpMessage{
		ID:           a.ID,
		Symbol:       a.Symbol,
		AlertType:    string(a.AlertType),
		Price:        a.PriceAtAlert,
		PriceChange:  a.PriceChangePercent,
		VolumeChange: a.VolumeChangePercent,
		Momentum:     a.Momentum,
		TimePeriod:   a.TimePeriod,
		CreatedAt:    a.CreatedAt,
	})
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.AlertPublisher = (*KafkaSignalPublisher)(nil)
