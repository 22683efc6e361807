package handlers

import (
	"MedOffice/middlewares"
	"MedOffice/models"
	"MedOffice/services"
	"MedOffice/utils"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentOperations is what the payment routes need from the payment service.
type PaymentOperations interface {
	CreatePayment(ctx context.Context, in services.CreatePaymentInput) (*models.Payment, error)
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	Search(ctx context.Context, query string) ([]models.Payment, error)
	RegisterCashPayment(ctx context.Context, id string, received decimal.Decimal, currency, actor string) (*models.Payment, error)
	VerifyBankTransfer(ctx context.Context, id string, in services.TransferInput, actor string) (*models.Payment, error)
	RecordWalletCallback(ctx context.Context, id string, in services.WalletCallbackInput, actor string) (*models.Payment, error)
	CreateWalletCheckout(ctx context.Context, id string) (*models.Payment, *models.WalletCheckout, error)
	UpdateFields(ctx context.Context, id string, patch services.PaymentPatch) (*models.Payment, error)
	CancelPayment(ctx context.Context, id, reason, actor string) (*models.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	IssueInvoice(ctx context.Context, id string) (*models.Payment, error)
	CreateNextInstallment(ctx context.Context, id string, in services.InstallmentInput) (*models.Payment, error)
	GroupProgress(ctx context.Context, groupID string) (*services.TreatmentGroupProgress, error)
}

type PaymentHandler struct {
	service PaymentOperations
	log     *zap.Logger
}

func NewPaymentHandler(service PaymentOperations, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.HttpError(c, h.log, "invalid payment", err)
		return
	}
	if err := utils.ValidateCreatePayment(req); err != nil {
		middlewares.HttpError(c, h.log, "invalid payment", invalid("invalid payment", err))
		return
	}

	payment, err := h.service.CreatePayment(c.Request.Context(), services.CreatePaymentInput{
		AppointmentID:   req.AppointmentID,
		Amount:          req.Amount,
		Method:          req.PaymentMethod,
		TreatmentType:   req.TreatmentType,
		CustomSessions:  req.CustomSessions,
		DueDate:         req.DueDate,
		DiscountPercent: req.DiscountPercent,
		Observations:    req.Observations,
	})
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to create payment", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusCreated)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to get payment", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	filter, err := paymentFilterFromQuery(c)
	if err != nil {
		middlewares.HttpError(c, h.log, "invalid filter", err)
		return
	}
	payments, err := h.service.ListPayments(c.Request.Context(), filter)
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to list payments", err)
		return
	}
	middlewares.RespondJSON(c, payments, http.StatusOK)
}

func (h *PaymentHandler) SearchPayments(c *gin.Context) {
	payments, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to search payments", err)
		return
	}
	middlewares.RespondJSON(c, payments, http.StatusOK)
}

func (h *PaymentHandler) RegisterCash(c *gin.Context) {
	var req models.CashPaymentRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.HttpError(c, h.log, "invalid cash payment", err)
		return
	}
	if err := utils.ValidateCashPayment(req); err != nil {
		middlewares.HttpError(c, h.log, "invalid cash payment", invalid("invalid cash payment", err))
		return
	}

	payment, err := h.service.RegisterCashPayment(c.Request.Context(), c.Param("id"), req.AmountReceived, req.Currency, middlewares.ResolveActor(c, req.Actor))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to register cash payment", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) VerifyTransfer(c *gin.Context) {
	var req models.TransferRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.HttpError(c, h.log, "invalid transfer", err)
		return
	}
	if err := utils.ValidateTransfer(req); err != nil {
		middlewares.HttpError(c, h.log, "invalid transfer", invalid("invalid transfer", err))
		return
	}

	payment, err := h.service.VerifyBankTransfer(c.Request.Context(), c.Param("id"), services.TransferInput{
		Reference:    req.Reference,
		Bank:         req.Bank,
		TransferDate: req.TransferDate,
		Verified:     req.Verified,
	}, middlewares.ResolveActor(c, req.Actor))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to verify transfer", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) WalletCheckout(c *gin.Context) {
	payment, checkout, err := h.service.CreateWalletCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to create wallet checkout", err)
		return
	}
	middlewares.RespondJSON(c, gin.H{"payment": payment, "checkout": checkout}, http.StatusOK)
}

func (h *PaymentHandler) WalletCallback(c *gin.Context) {
	var req models.WalletCallbackRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.HttpError(c, h.log, "invalid wallet callback", err)
		return
	}
	if err := utils.ValidateWalletCallback(req); err != nil {
		middlewares.HttpError(c, h.log, "invalid wallet callback", invalid("invalid wallet callback", err))
		return
	}

	payment, err := h.service.RecordWalletCallback(c.Request.Context(), c.Param("id"), services.WalletCallbackInput{
		ExternalPreferenceID: req.ExternalPreferenceID,
		ExternalPaymentID:    req.ExternalPaymentID,
		ExternalStatus:       req.ExternalStatus,
		GrossAmount:          req.GrossAmount,
	}, middlewares.ResolveActor(c, ""))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to record wallet callback", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var patch services.PaymentPatch
	if err := decodeStrict(c, &patch); err != nil {
		middlewares.HttpError(c, h.log, "invalid payment patch", err)
		return
	}
	patch.Actor = middlewares.ResolveActor(c, patch.Actor)

	payment, err := h.service.UpdateFields(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to update payment", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	var req models.CancelPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			middlewares.HttpError(c, h.log, "invalid cancellation", err)
			return
		}
	}

	payment, err := h.service.CancelPayment(c.Request.Context(), c.Param("id"), req.Reason, middlewares.ResolveActor(c, req.Actor))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to cancel payment", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	if err := h.service.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		middlewares.HttpError(c, h.log, "failed to delete payment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) IssueInvoice(c *gin.Context) {
	payment, err := h.service.IssueInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to issue invoice", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusOK)
}

func (h *PaymentHandler) CreateInstallment(c *gin.Context) {
	var req models.InstallmentRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.HttpError(c, h.log, "invalid installment", err)
		return
	}

	payment, err := h.service.CreateNextInstallment(c.Request.Context(), c.Param("id"), services.InstallmentInput{
		AppointmentID: req.AppointmentID,
		DueDate:       req.DueDate,
	})
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to create installment", err)
		return
	}
	middlewares.RespondJSON(c, payment, http.StatusCreated)
}

func (h *PaymentHandler) GetTreatmentGroup(c *gin.Context) {
	progress, err := h.service.GroupProgress(c.Request.Context(), c.Param("group_id"))
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to get treatment group", err)
		return
	}
	middlewares.RespondJSON(c, progress, http.StatusOK)
}

func paymentFilterFromQuery(c *gin.Context) (models.PaymentFilter, error) {
	filter := models.PaymentFilter{
		PatientID:        c.Query("patient_id"),
		AppointmentID:    c.Query("appointment_id"),
		TreatmentGroupID: c.Query("treatment_group_id"),
		Method:           models.PaymentMethod(c.Query("method")),
		TreatmentType:    models.TreatmentType(c.Query("treatment_type")),
	}
	if raw := c.Query("state"); raw != "" {
		for _, st := range strings.Split(raw, ",") {
			filter.States = append(filter.States, models.PaymentState(strings.TrimSpace(st)))
		}
	}

	var err error
	if filter.PaidFrom, err = dateQuery(c, "paid_from"); err != nil {
		return filter, err
	}
	if filter.PaidTo, err = dateQuery(c, "paid_to"); err != nil {
		return filter, err
	}
	if filter.PaidTo != nil {
		// paid_to names the last included day
		end := filter.PaidTo.AddDate(0, 0, 1)
		filter.PaidTo = &end
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func dateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, invalid(key+" must be YYYY-MM-DD", err)
	}
	return &t, nil
}
