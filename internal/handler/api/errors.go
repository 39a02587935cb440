package api

import (
	"errors"
	"net/http"

	"DayTrader/internal/domain/models"
	"DayTrader/internal/service/scheduler"
	xhttp "DayTrader/pkg/http"
)

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var (
		appErr *xhttp.AppError
		verr   *models.ValidationError
		perr   *models.ProviderError
		terr   *models.TransportError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &verr):
		return xhttp.NewAppError("ERR_VALIDATION", verr.Field, verr.Message, http.StatusBadRequest).WithError(err)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, scheduler.ErrUnknownJob):
		return xhttp.NewAppError("ERR_NOT_FOUND", "", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, scheduler.ErrJobRunning):
		return xhttp.ConflictErrorf("%v", err).WithError(err)
	case errors.As(err, &perr):
		return xhttp.NewAppError("ERR_PROVIDER", "", "market data provider failed", http.StatusBadGateway).
			WithParam("provider", perr.Provider).WithError(err)
	case errors.As(err, &terr):
		return xhttp.NewAppError("ERR_TRANSPORT", "", "notification delivery failed", http.StatusBadGateway).
			WithParam("channel", terr.Channel).WithError(err)
	default:
		return xhttp.InternalErrorf("internal error").WithError(err)
	}
}
