package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"SignalDesk/internal/domain/models"
	xhttp "SignalDesk/pkg/http"
)

// Client fetches spot prices and klines from the exchange REST API.
type Client struct {
	baseURL string
	http    *xhttp.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// CurrentPrice returns the latest trade price for a symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var resp tickerPriceResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      http.MethodGet,
		URL:         c.baseURL + "/api/v3/ticker/price",
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("ticker price %s: %w", symbol, err)
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q for %s: %w", resp.Price, symbol, err)
	}
	return price, nil
}

// Klines fetches up to limit historical bars for the given interval.
// The exchange encodes each kline as a mixed-type JSON array.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	var raw [][]interface{}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}

	out := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		c2, err := parseKline(symbol, k)
		if err != nil {
			return nil, fmt.Errorf("klines %s: %w", symbol, err)
		}
		out = append(out, c2)
	}
	return out, nil
}

// parseKline reads [openTime, open, high, low, close, volume, ...].
func parseKline(symbol string, k []interface{}) (models.Candle, error) {
	var c models.Candle
	if len(k) < 6 {
		return c, fmt.Errorf("short kline row, %d fields", len(k))
	}
	openTime, ok := k[0].(float64)
	if !ok {
		return c, fmt.Errorf("kline open time %T", k[0])
	}
	c.Timestamp = time.UnixMilli(int64(openTime)).UTC()
	c.Symbol = symbol

	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, dst := range fields {
		s, ok := k[i+1].(string)
		if !ok {
			return c, fmt.Errorf("kline field %d is %T", i+1, k[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		*dst = v
	}
	return c, nil
}
