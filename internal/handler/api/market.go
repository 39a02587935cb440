package api

import (
	"context"
	"net/http"
	"time"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/usecase"
	xhttp "DayTrader/pkg/http"
	xlogger "DayTrader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PriceLookup resolves spot prices.
type PriceLookup interface {
	Spot(ctx context.Context, symbol string) (usecase.Quote, error)
}

// MarketHandler serves liveness and spot prices.
type MarketHandler struct {
	prices  PriceLookup
	started time.Time
	logger  *xlogger.Logger
}

func NewMarketHandler(prices PriceLookup, logger *xlogger.Logger) *MarketHandler {
	return &MarketHandler{prices: prices, started: time.Now(), logger: logger}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/livez", h.Livez)
	e.GET("/btc/price", h.BTCPrice)
	e.GET("/api/price", h.Price)
}

func (h *MarketHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Day Trading Agent is running!")
}

func (h *MarketHandler) Livez(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *MarketHandler) BTCPrice(c echo.Context) error {
	return h.spot(c, "BTCUSDT")
}

func (h *MarketHandler) Price(c echo.Context) error {
	req := &models.PriceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.spot(c, req.Symbol)
}

func (h *MarketHandler) spot(c echo.Context, symbol string) error {
	q, err := h.prices.Spot(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Warn("spot price", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, q)
}
