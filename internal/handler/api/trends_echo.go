package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"Certus/internal/domain/models"
	drepo "Certus/internal/domain/repository"
	icache "Certus/internal/service/cache"
	"Certus/internal/service/ratelimit"
	"Certus/internal/usecase"
	xhttp "Certus/pkg/http"
	xlogger "Certus/pkg/logger"
	"Certus/pkg/util"
)

// TrendsEchoHandler serves the trend feed, the leaderboard and per-asset views.
type TrendsEchoHandler struct {
	logger   *xlogger.Logger
	queries  *usecase.QueryUseCase
	store    drepo.Store
	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	rps      float64
	burst    float64
}

type HandlerOption func(*TrendsEchoHandler)

// WithCache caches list responses for ttl.
func WithCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *TrendsEchoHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithRateLimit limits each client address to rps requests per second.
func WithRateLimit(rps float64, burst int) HandlerOption {
	return func(h *TrendsEchoHandler) {
		if rps > 0 {
			h.rl = ratelimit.New()
			h.rps = rps
			h.burst = float64(burst)
			if h.burst < 1 {
				h.burst = 1
			}
		}
	}
}

func NewTrendsEchoHandler(logger *xlogger.Logger, queries *usecase.QueryUseCase, store drepo.Store, opts ...HandlerOption) *TrendsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &TrendsEchoHandler{logger: logger, queries: queries, store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TrendsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api", h.rateLimit)
	g.GET("/trends", h.Trends)
	g.GET("/leaderboard", h.Leaderboard)
	g.GET("/assets/:symbol", h.Asset)
	g.GET("/assets/:symbol/history", h.History)
}

func (h *TrendsEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP(), h.burst, h.rps) {
			h.logger.Warn("rate limited", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
			return xhttp.TooManyRequestsResponse(c)
		}
		return next(c)
	}
}

func (h *TrendsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Health(ctx); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("store unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *TrendsEchoHandler) Trends(c echo.Context) error {
	req := &models.TrendsRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("trends:%s:%d", strings.ToUpper(req.Symbol), req.Limit)
	return h.cachedList(c, key, func(ctx context.Context) (interface{}, int, error) {
		rows, err := h.queries.Trends(ctx, req.Symbol, req.Limit)
		return rows, len(rows), err
	})
}

func (h *TrendsEchoHandler) Leaderboard(c echo.Context) error {
	req := &models.LeaderboardRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	key := fmt.Sprintf("leaderboard:%s:%d", req.Tier, req.Limit)
	return h.cachedList(c, key, func(ctx context.Context) (interface{}, int, error) {
		rows, err := h.queries.Leaderboard(ctx, req.Limit, models.TrendTier(req.Tier))
		return rows, len(rows), err
	})
}

func (h *TrendsEchoHandler) Asset(c echo.Context) error {
	req := &models.AssetRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.queries.Overview(c.Request().Context(), req.Symbol, req.News)
	if err != nil {
		return h.fail(c, "asset", req.Symbol, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *TrendsEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.queries.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		return h.fail(c, "history", req.Symbol, err)
	}
	return xhttp.ListResponse(c, rows, len(rows))
}

// cachedList serves a list from the cache, loading and storing it on a miss.
// Cache failures fall back to the loader.
func (h *TrendsEchoHandler) cachedList(c echo.Context, key string, load func(context.Context) (interface{}, int, error)) error {
	ctx := c.Request().Context()
	if h.cache == nil || h.cacheTTL <= 0 {
		rows, n, err := load(ctx)
		if err != nil {
			return h.fail(c, key, "", err)
		}
		return xhttp.ListResponse(c, rows, n)
	}

	b, hit, err := icache.GetOrLoad(ctx, h.cache, key, h.cacheTTL, func(ctx context.Context) ([]byte, error) {
		rows, _, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		return h.fail(c, key, "", err)
	}
	rows := []json.RawMessage{}
	if err := json.Unmarshal(b, &rows); err != nil {
		return h.fail(c, key, "", err)
	}
	if hit {
		c.Response().Header().Set("X-Cache", "HIT")
	} else {
		c.Response().Header().Set("X-Cache", "MISS")
	}
	return xhttp.ListResponse(c, rows, len(rows))
}

func (h *TrendsEchoHandler) fail(c echo.Context, op, symbol string, err error) error {
	if errors.Is(err, usecase.ErrUnknownSymbol) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no data for symbol %s", util.NormalizeSymbol(symbol)))
	}
	h.logger.Error("query failed", xlogger.String("op", op), xlogger.String("symbol", symbol), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("query failed").WithError(err))
}

var _ xhttp.Handler = (*TrendsEchoHandler)(nil)
