package api

import (
	"encoding/json"
	"errors"

	"github.com/labstack/echo/v4"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
	drepo "BrokerSync/internal/domain/repository"
	"BrokerSync/internal/usecase"
	xhttp "BrokerSync/pkg/http"
	xlogger "BrokerSync/pkg/logger"
)

// BrokersEchoHandler exposes the broker settings projection and the sync
// triggers to the host application. Secrets go in, never out.
type BrokersEchoHandler struct {
	logger    *xlogger.Logger
	platforms drepo.PlatformsService
	sync      *usecase.SyncService
}

func NewBrokersEchoHandler(logger *xlogger.Logger, platforms drepo.PlatformsService, sync *usecase.SyncService) *BrokersEchoHandler {
	return &BrokersEchoHandler{logger: logger, platforms: platforms, sync: sync}
}

func (h *BrokersEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/platforms", h.ListPlatforms)
	g.PUT("/platforms/:id", h.UpdatePlatform)
	g.GET("/platforms/:id/secrets", h.HasSecrets)
	g.PUT("/platforms/:id/secrets", h.SetSecrets)
	g.POST("/sync", h.SyncAll)
	g.POST("/accounts/:id/sync", h.SyncAccount)
}

func (h *BrokersEchoHandler) ListPlatforms(c echo.Context) error {
	settings, err := h.platforms.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list platforms error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, settings)
}

func (h *BrokersEchoHandler) UpdatePlatform(c echo.Context) error {
	req := &models.UpdatePlatformRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	setting, err := h.platforms.SetEnabled(c.Request().Context(), c.Param("id"), *req.Enabled)
	if err != nil {
		if errors.Is(err, broker.ErrUnsupportedPlatform) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		h.logger.Error("update platform error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, setting)
}

func (h *BrokersEchoHandler) HasSecrets(c echo.Context) error {
	has, err := h.platforms.HasSecrets(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("has secrets error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"hasSecrets": has})
}

func (h *BrokersEchoHandler) SetSecrets(c echo.Context) error {
	req := &models.SetSecretsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	raw, err := json.Marshal(req.Secrets)
	if err != nil {
		return xhttp.BadRequestResponse(c, "invalid secrets payload")
	}

	err = h.platforms.SetSecrets(c.Request().Context(), c.Param("id"), string(raw))
	if err != nil {
		if errors.Is(err, broker.ErrUnsupportedPlatform) {
			return xhttp.NotFoundResponse(c, err.Error())
		}
		if errors.Is(err, broker.ErrMalformedCredentials) || errors.Is(err, broker.ErrMissingCredentials) {
			return xhttp.BadRequestResponse(c, "invalid secrets payload")
		}
		// no payload details in the log, only the platform id
		h.logger.Error("set secrets error", xlogger.String("platform", c.Param("id")))
		return xhttp.AppErrorResponse(c, errors.New("store secrets failed"))
	}
	return xhttp.NoContentResponse(c)
}

func (h *BrokersEchoHandler) SyncAll(c echo.Context) error {
	summary, err := h.sync.SyncAllAccounts(c.Request().Context())
	if err != nil {
		h.logger.Error("sync all error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *BrokersEchoHandler) SyncAccount(c echo.Context) error {
	res, err := h.sync.SyncAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		// the result carries the cause; per-account failures are data here
		return xhttp.DataResponse(c, statusForSyncError(err), res)
	}
	return xhttp.SuccessResponse(c, res)
}

func statusForSyncError(err error) int {
	switch {
	case errors.Is(err, broker.ErrNoLinkedPlatform),
		errors.Is(err, broker.ErrMissingCredentials),
		errors.Is(err, broker.ErrMalformedCredentials),
		errors.Is(err, broker.ErrUnsupportedPlatform):
		return 422
	case broker.IsAuthFailed(err):
		return 401
	default:
		return 502
	}
}
