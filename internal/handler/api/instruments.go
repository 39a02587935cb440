package api

import (
	"net/url"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/service/registry"
	xhttp "DayTrader/pkg/http"
	xlogger "DayTrader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// InstrumentsHandler reads the registry and updates alert limits.
type InstrumentsHandler struct {
	registry *registry.Registry
	logger   *xlogger.Logger
}

func NewInstrumentsHandler(reg *registry.Registry, logger *xlogger.Logger) *InstrumentsHandler {
	return &InstrumentsHandler{registry: reg, logger: logger}
}

func (h *InstrumentsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/assets/set", h.UpdateLimits)

	g := e.Group("/api/instruments")
	g.GET("", h.List)
	g.GET("/:symbol", h.Get)
	g.PUT("/:symbol/limits", h.UpdateInstrumentLimits)
}

func (h *InstrumentsHandler) List(c echo.Context) error {
	req := &models.InstrumentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var rows []models.InstrumentConfig
	if req.Class == "" {
		rows = h.registry.List()
	} else {
		rows = h.registry.List(models.AssetClass(req.Class))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *InstrumentsHandler) Get(c echo.Context) error {
	cfg, err := h.registry.Get(unescape(c.Param("symbol")))
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cfg)
}

// UpdateLimits serves the legacy body form: {symbol, upperLimit, lowerLimit}.
func (h *InstrumentsHandler) UpdateLimits(c echo.Context) error {
	req := &models.UpdateLimitsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	upper, lower := req.Bounds()
	return h.setLimits(c, req.Symbol, upper, lower)
}

// UpdateInstrumentLimits serves PUT /api/instruments/:symbol/limits. A symbol in the body is ignored.
func (h *InstrumentsHandler) UpdateInstrumentLimits(c echo.Context) error {
	req := &models.InstrumentLimitsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	upper, lower := req.Bounds()
	return h.setLimits(c, req.Symbol, upper, lower)
}

func (h *InstrumentsHandler) setLimits(c echo.Context, symbol string, upper, lower float64) error {
	symbol = unescape(symbol)
	if err := h.registry.SetLimits(symbol, upper, lower); err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("limits updated",
		xlogger.String("symbol", symbol),
		xlogger.Float("upper", upper),
		xlogger.Float("lower", lower),
		xlogger.String("source", "http"))

	cfg, err := h.registry.Get(symbol)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, cfg)
}

// unescape handles symbols like ^DJI or EURUSD=X arriving percent-encoded in the path.
func unescape(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}
