package usecase

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	mid "SignalDesk/internal/middleware"
	"SignalDesk/internal/service/exchange"
)

// TickerProcessor feeds stream tickers into the live price layer.
type TickerProcessor struct {
	prices  *exchange.LivePrices
	metrics drepo.Metrics
}

func NewTickerProcessor(prices *exchange.LivePrices, metrics drepo.Metrics) *TickerProcessor {
	return &TickerProcessor{prices: prices, metrics: metrics}
}

func (p *TickerProcessor) Process(ctx context.Context, t *models.Ticker) error {
	p.prices.Update(t.Symbol, t.Price, time.Unix(t.Timestamp, 0))
	if p.metrics != nil {
		p.metrics.RecordLastPrice(t.Symbol, t.Price)
	}
	return nil
}

// TickerCollector collects tickers from the market stream and pushes them
// through the pipeline into the price layer.
type TickerCollector struct {
	stream  drepo.MarketStream
	proc    *TickerProcessor
	metrics drepo.Metrics
	pipe    *mid.TickerPipeline
}

func NewTickerCollector(stream drepo.MarketStream, proc *TickerProcessor, metrics drepo.Metrics, pipe *mid.TickerPipeline) *TickerCollector {
	return &TickerCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected reports whether the market stream is connected.
func (c *TickerCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickerCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tkCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tkCh, errCh)
	return nil
}

func (c *TickerCollector) consume(ctx context.Context, tkCh <-chan *models.Ticker, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tkCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickerCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
