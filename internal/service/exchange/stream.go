package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a MarketStream backed by the exchange combined
// websocket feed (miniTicker channel per symbol).
type Stream struct {
	wsURL          string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a new exchange MarketStream.
func NewStream(wsURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Stream{
		wsURL:          wsURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect dials the combined stream endpoint with all symbol channels in
// the URL, so no separate subscribe frame is strictly required.
func (s *Stream) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		streams = append(streams, strings.ToLower(sym)+"@miniTicker")
	}
	u := fmt.Sprintf("%s/stream?streams=%s", s.wsURL, strings.Join(streams, "/"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("exchange connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Subscribe sends an explicit SUBSCRIBE frame, useful after a reconnect
// when channels were added at runtime.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	s.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("exchange stream not connected")
	}
	params := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		params = append(params, strings.ToLower(sym)+"@miniTicker")
	}
	msg := map[string]interface{}{"method": "SUBSCRIBE", "params": params, "id": 1}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

type miniTicker struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
}

type streamFrame struct {
	Stream string     `json:"stream"`
	Data   miniTicker `json:"data"`
}

// Read streams Ticker events and errors.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Ticker, <-chan error) {
	tickers := make(chan *models.Ticker, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(tickers)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn == nil {
					errs <- fmt.Errorf("exchange conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("exchange read: %w", err)
					return
				}
				var frame streamFrame
				if err := json.Unmarshal(b, &frame); err != nil {
					// ignore non-ticker frames
					continue
				}
				t := tickerFromFrame(frame.Data)
				if t == nil {
					continue
				}
				select {
				case tickers <- t:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return tickers, errs
}

func tickerFromFrame(m miniTicker) *models.Ticker {
	if m.Symbol == "" || m.Close == "" {
		return nil
	}
	price, err := strconv.ParseFloat(m.Close, 64)
	if err != nil {
		return nil
	}
	volume, _ := strconv.ParseFloat(m.Volume, 64)
	return &models.Ticker{
		Symbol:    m.Symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: m.EventTime / 1000,
	}
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsConnected reports whether the stream currently holds a connection.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
