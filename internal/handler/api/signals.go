package api

import (
	"encoding/json"
	"strconv"
	"time"

	models "SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/service/cache"
	svcmetrics "SignalDesk/internal/service/metrics"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/features"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/util"

	"github.com/labstack/echo/v4"
)

const accuracyCacheTTL = 30 * time.Second

// SignalsHandler serves the detection and signal-tracking endpoints.
type SignalsHandler struct {
	logger  *xlogger.Logger
	agg     *usecase.SignalAggregator
	candles domrepo.FeatureStore
	store   domrepo.SignalStore
	cache   cache.BytesCache
	limiter *ratelimit.Limiter
}

func NewSignalsHandler(
	logger *xlogger.Logger,
	agg *usecase.SignalAggregator,
	candles domrepo.FeatureStore,
	store domrepo.SignalStore,
	c cache.BytesCache,
	limiter *ratelimit.Limiter,
) *SignalsHandler {
	return &SignalsHandler{logger: logger, agg: agg, candles: candles, store: store, cache: c, limiter: limiter}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	svcmetrics.Register()
	g := e.Group("/api", h.rateLimit)
	g.GET("/candles", h.Candles)
	g.GET("/signals/best", h.BestSignals)
	g.GET("/signals/score", h.Score)
	g.GET("/signals/history", h.SignalHistory)
	g.GET("/signals/accuracy", h.Accuracy)
	g.GET("/pumpdump/history", h.PumpDumpHistory)
}

// rateLimit is a per-IP token bucket across the API group.
func (h *SignalsHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP(), 20, 10) {
			svcmetrics.APIErrors.WithLabelValues("rate_limited").Inc()
			return echo.ErrTooManyRequests
		}
		return next(c)
	}
}

// Candles returns the raw OHLCV rows for a symbol and time range. The range
// is aligned to timeframe boundaries before the query.
func (h *SignalsHandler) Candles(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	from, to = util.AlignFromTo(from, to, string(tf))

	rows, err := h.candles.GetCandles(c.Request().Context(), symbol, from, to, tf)
	if err != nil {
		h.logger.Error("candle range load error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("candles").Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsHandler) BestSignals(c echo.Context) error {
	start := time.Now()
	req := &models.BestSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	candles, err := h.candles.GetLatestNCandles(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		h.logger.Error("best signals candle load error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("best").Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	events := h.agg.Analyze(req.Symbol, features.Build(candles))
	best := h.agg.Best(events, req.TopN)
	svcmetrics.APILatency.WithLabelValues("best").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, best)
}

func (h *SignalsHandler) Score(c echo.Context) error {
	start := time.Now()
	req := &models.ScoreRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	candles, err := h.candles.GetLatestNCandles(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		h.logger.Error("score candle load error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("score").Inc()
		return xhttp.AppErrorResponse(c, err)
	}

	price := 0.0
	if len(candles) > 0 {
		price = candles[len(candles)-1].Close
	}
	events := h.agg.Analyze(req.Symbol, features.Build(candles))
	rec := h.agg.CombinedScore(req.Symbol, events, price)
	svcmetrics.APILatency.WithLabelValues("score").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, rec)
}

func (h *SignalsHandler) SignalHistory(c echo.Context) error {
	req := &models.SignalHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.store.SignalHistory(c.Request().Context(), req.Symbol, models.SignalCategory(req.Category), req.Limit)
	if err != nil {
		h.logger.Error("signal history error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("history").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsHandler) PumpDumpHistory(c echo.Context) error {
	req := &models.PumpDumpHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.store.PumpDumpHistory(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("pump/dump history error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("pumpdump").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsHandler) Accuracy(c echo.Context) error {
	req := &models.AccuracyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := "accuracy:" + strconv.Itoa(req.Hours)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			var stats models.AccuracyStats
			if err := json.Unmarshal(b, &stats); err == nil {
				return xhttp.SuccessResponse(c, stats)
			}
		}
	}

	stats, err := h.store.AccuracyStats(c.Request().Context(), time.Duration(req.Hours)*time.Hour)
	if err != nil {
		h.logger.Error("accuracy stats error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("accuracy").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(stats); err == nil {
			_ = h.cache.SetBytes(key, b, accuracyCacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, stats)
}
