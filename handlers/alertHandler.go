package handlers

import (
	"MedOffice/middlewares"
	"MedOffice/models"
	"MedOffice/services"
	"MedOffice/utils"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlertOperations interface {
	DueAlerts(ctx context.Context, asOf time.Time) ([]services.DueAlert, error)
	MarkSent(ctx context.Context, paymentID, alertRef string, channel models.DeliveryChannel, destination string) (*models.Payment, error)
	SweepOverdue(ctx context.Context, asOf time.Time) (*services.SweepResult, error)
	DispatchDue(ctx context.Context, asOf time.Time) (*services.DispatchResult, error)
}

type AlertHandler struct {
	service AlertOperations
	log     *zap.Logger
	now     func() time.Time
}

func NewAlertHandler(service AlertOperations, log *zap.Logger) *AlertHandler {
	return &AlertHandler{service: service, log: log, now: time.Now}
}

func (h *AlertHandler) DueAlerts(c *gin.Context) {
	asOf, err := asOfQuery(c, h.now())
	if err != nil {
		middlewares.HttpError(c, h.log, "invalid as_of", err)
		return
	}
	alerts, err := h.service.DueAlerts(c.Request.Context(), asOf)
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to list due alerts", err)
		return
	}
	middlewares.RespondJSON(c, alerts, http.StatusOK)
}

func (h *AlertHandler) MarkSent(c *gin.Context) {
	var req models.MarkSentRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			middlewares.HttpError(c, h.log, "invalid alert delivery", err)
			return
		}
	}
	if err := utils.ValidateMarkSent(req); err != nil {
		middlewares.HttpError(c, h.log, "invalid alert delivery", invalid("invalid alert delivery", err))
		return
	}

	payment, err := h.service.MarkSent(c.Request.Context(), c.Param("id"), c.Param("alert_id"), req.Channel, req.Destination)
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to mark alert as sent", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *AlertHandler) Sweep(c *gin.Context) {
	asOf, err := asOfQuery(c, h.now())
	if err != nil {
		middlewares.HttpError(c, h.log, "invalid as_of", err)
		return
	}
	result, err := h.service.SweepOverdue(c.Request.Context(), asOf)
	if err != nil {
		middlewares.HttpError(c, h.log, "overdue sweep failed", err)
		return
	}
	middlewares.RespondJSON(c, result, http.StatusOK)
}

func (h *AlertHandler) Dispatch(c *gin.Context) {
	asOf, err := asOfQuery(c, h.now())
	if err != nil {
		middlewares.HttpError(c, h.log, "invalid as_of", err)
		return
	}
	result, err := h.service.DispatchDue(c.Request.Context(), asOf)
	if err != nil {
		middlewares.HttpError(c, h.log, "alert dispatch failed", err)
		return
	}
	middlewares.RespondJSON(c, result, http.StatusOK)
}
