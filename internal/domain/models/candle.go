package models

import "time"

// Candle represents an immutable OHLCV bar. Timestamps are UTC.
type Candle struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Ticker is a live last-price observation from the exchange stream.
type Ticker struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp int64 // unix seconds
}
