package models

// Requests for the signals HTTP endpoints. Defined in domain for consistency and reuse.

type BestSignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TopN   int    `query:"top_n" json:"top_n" default:"3" validate:"gte=1,lte=20"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type ScoreRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type SignalHistoryRequest struct {
	Symbol   string `query:"symbol" json:"symbol"`
	Category string `query:"category" json:"category" validate:"omitempty,oneof=BASIC ADVANCED PUMP_DUMP"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type PumpDumpHistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type AccuracyRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
}
