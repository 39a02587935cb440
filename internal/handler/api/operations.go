package api

import (
	"context"
	"strconv"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	"DayTrader/internal/service/scheduler"
	"DayTrader/internal/service/window"
	xhttp "DayTrader/pkg/http"
	xlogger "DayTrader/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ManualSender delivers ad-hoc notifications.
type ManualSender interface {
	SendManual(ctx context.Context, platform, recipient, text string) error
}

// JobControl exposes the scheduler to operators.
type JobControl interface {
	Trigger(name string) error
	Jobs() []scheduler.JobStatus
}

// WindowKeys lists stored (symbol, interval) windows.
type WindowKeys interface {
	Keys() []window.Key
}

// OperationsHandler covers manual notifications, cycle triggers, status and the signal journal.
type OperationsHandler struct {
	sender  ManualSender
	jobs    JobControl
	windows WindowKeys
	history domrepo.SignalHistory
	logger  *xlogger.Logger
}

// NewOperationsHandler builds the handler. history may be nil when the journal is disabled.
func NewOperationsHandler(sender ManualSender, jobs JobControl, windows WindowKeys, history domrepo.SignalHistory, logger *xlogger.Logger) *OperationsHandler {
	return &OperationsHandler{sender: sender, jobs: jobs, windows: windows, history: history, logger: logger}
}

func (h *OperationsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/notifications/send", h.SendNotification)

	g := e.Group("/api")
	g.POST("/cycles/:group", h.TriggerCycle)
	g.GET("/status", h.Status)
	g.GET("/signals", h.Signals)
}

func (h *OperationsHandler) SendNotification(c echo.Context) error {
	req := &models.SendNotificationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.sender.SendManual(c.Request().Context(), req.Platform, req.Target, req.Message); err != nil {
		h.logger.Error("manual notification", xlogger.String("platform", req.Platform), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"message": "Notification sent successfully!"})
}

func (h *OperationsHandler) TriggerCycle(c echo.Context) error {
	req := &models.TriggerCycleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.jobs.Trigger(req.Group); err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	h.logger.Info("cycle triggered", xlogger.String("group", req.Group))
	return xhttp.AcceptedResponse(c, map[string]string{"group": req.Group})
}

type windowKey struct {
	Symbol   string          `json:"symbol"`
	Interval models.Interval `json:"interval"`
}

func (h *OperationsHandler) Status(c echo.Context) error {
	keys := h.windows.Keys()
	out := make([]windowKey, len(keys))
	for i, k := range keys {
		out[i] = windowKey{Symbol: k.Symbol, Interval: k.Interval}
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"jobs":    h.jobs.Jobs(),
		"windows": out,
	})
}

func (h *OperationsHandler) Signals(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("signal journal is disabled"))
	}
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return xhttp.AppErrorResponse(c, xhttp.FieldError("limit", "limit must be a positive integer"))
		}
		limit = n
	}
	rows, err := h.history.Recent(c.Request().Context(), c.QueryParam("symbol"), limit)
	if err != nil {
		h.logger.Error("read signal journal", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("could not read signals").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
