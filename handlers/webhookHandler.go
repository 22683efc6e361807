package handlers

import (
	"MedOffice/apperrors"
	"MedOffice/gateway"
	"MedOffice/middlewares"
	"MedOffice/models"
	"MedOffice/services"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const webhookActor = "midtrans"

type SignatureVerifier interface {
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
}

type WalletCallbackRecorder interface {
	RecordWalletCallback(ctx context.Context, id string, in services.WalletCallbackInput, actor string) (*models.Payment, error)
}

type midtransNotification struct {
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

type WebhookHandler struct {
	verifier SignatureVerifier
	payments WalletCallbackRecorder
	log      *zap.Logger
}

func NewWebhookHandler(verifier SignatureVerifier, payments WalletCallbackRecorder, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, payments: payments, log: log}
}

// Midtrans records a Snap notification. The order id is the payment id.
func (h *WebhookHandler) Midtrans(c *gin.Context) {
	var notif midtransNotification
	if err := bindJSON(c, &notif); err != nil {
		middlewares.HttpError(c, h.log, "invalid notification", err)
		return
	}
	if !h.verifier.VerifySignature(notif.OrderID, notif.StatusCode, notif.GrossAmount, notif.SignatureKey) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	status := gateway.NormalizeStatus(notif.TransactionStatus, notif.FraudStatus)
	payment, err := h.payments.RecordWalletCallback(c.Request.Context(), notif.OrderID, services.WalletCallbackInput{
		ExternalPaymentID: notif.TransactionID,
		ExternalStatus:    status,
		GrossAmount:       notif.GrossAmount,
	}, webhookActor)
	if apperrors.IsNotFound(err) {
		// acknowledged so the provider stops retrying
		h.log.Warn("midtrans notification for unknown payment", zap.String("order_id", notif.OrderID))
		middlewares.RespondJSON(c, gin.H{"status": "ignored", "reason": "payment not found"}, http.StatusOK)
		return
	}
	if apperrors.IsTransient(err) {
		// not acknowledged, the provider retries the notification
		h.log.Warn("midtrans notification deferred, payment is busy", zap.String("order_id", notif.OrderID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "payment is busy, retry later", "code": apperrors.CodeOf(err)})
		return
	}
	if apperrors.IsConflict(err) {
		h.log.Warn("midtrans notification conflicts with payment state", zap.String("order_id", notif.OrderID), zap.Error(err))
		middlewares.RespondJSON(c, gin.H{"status": "ignored", "reason": err.Error()}, http.StatusOK)
		return
	}
	if err != nil {
		middlewares.HttpError(c, h.log, "failed to record wallet notification", err)
		return
	}

	h.log.Info("midtrans notification recorded",
		zap.String("payment_id", payment.ID),
		zap.String("transaction_status", notif.TransactionStatus),
		zap.String("wallet_status", status),
		zap.String("state", string(payment.State)),
	)
	middlewares.RespondJSON(c, gin.H{"status": "ok", "payment_id": payment.ID, "state": payment.State}, http.StatusOK)
}
