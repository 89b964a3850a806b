package models

import "time"

// Direction of a trading signal.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Detector source types. The aggregator matches categories by substring
// against these, so their naming is load-bearing.
const (
	SourceSmartMoneyAccumulation = "SMART_MONEY_ACCUMULATION"
	SourceSmartMoneyDistribution = "SMART_MONEY_DISTRIBUTION"
	SourceBullishOrderBlock      = "BULLISH_ORDER_BLOCK"
	SourceBearishOrderBlock      = "BEARISH_ORDER_BLOCK"
	SourceLiquidityGrabLow       = "LIQUIDITY_GRAB_LOW"
	SourceLiquidityGrabHigh      = "LIQUIDITY_GRAB_HIGH"
	SourceBullishDivergence      = "BULLISH_DIVERGENCE"
	SourceBearishDivergence      = "BEARISH_DIVERGENCE"
	SourceWhaleBuying            = "WHALE_BUYING"
	SourceWhaleSelling           = "WHALE_SELLING"
	SourcePumpStarting           = "PUMP_STARTING"
	SourceDumpWarning            = "DUMP_WARNING"
	SourceStrongPump             = "STRONG_PUMP"
	SourceStrongDump             = "STRONG_DUMP"
	SourceBasicAnalysis          = "BASIC_ANALYSIS"
	SourceUTBot                  = "UT_BOT"
)

// SignalEvent is a single detector finding on one bar. Immutable after
// creation; optional diagnostics are nil when the detector does not set them.
type SignalEvent struct {
	Symbol    string
	Source    string
	Direction Direction
	Strength  float64 // clamped to [0,100] by detectors
	Reason    string
	Price     float64
	Index     int // originating bar index within the scanned series
	Timestamp time.Time

	StopLoss   *float64
	TakeProfit *float64

	// Diagnostics.
	RSI          *float64
	VolumeZScore *float64
	BlockTop     *float64
	BlockBottom  *float64
	Resistance   *float64
	VolumeSpike  *float64
	PriceChange  *float64
	VolumeChange *float64
	Momentum     *int
}

// Verdict is the aggregator's final call for one symbol.
type Verdict string

const (
	VerdictStrongBuy  Verdict = "STRONG_BUY"
	VerdictStrongSell Verdict = "STRONG_SELL"
	VerdictNeutral    Verdict = "NEUTRAL"
)

// Recommendation is the combined weighted score over all detector output for
// one symbol. Derived per evaluation, never persisted.
type Recommendation struct {
	Symbol     string
	Verdict    Verdict
	BuyScore   float64
	SellScore  float64
	Confidence float64
	Reasons    []string // top contributing reasons for the winning side
	Price      float64
}

// Float64 returns a pointer to v, for optional SignalEvent fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
