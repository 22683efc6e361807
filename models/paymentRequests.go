package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	AppointmentID   string          `json:"appointment_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	TreatmentType   TreatmentType   `json:"treatment_type"`
	CustomSessions  int             `json:"custom_sessions"`
	DueDate         *time.Time      `json:"due_date"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Observations    string          `json:"observations"`
}

type CashPaymentRequest struct {
	AmountReceived decimal.Decimal `json:"amount_received"`
	Currency       string          `json:"currency"`
	Actor          string          `json:"actor"`
}

type TransferRequest struct {
	Reference    string    `json:"reference"`
	Bank         string    `json:"bank"`
	TransferDate time.Time `json:"transfer_date"`
	Verified     bool      `json:"verified"`
	Actor        string    `json:"actor"`
}

type WalletCallbackRequest struct {
	ExternalPreferenceID string `json:"external_preference_id"`
	ExternalPaymentID    string `json:"external_payment_id"`
	ExternalStatus       string `json:"external_status"`
	GrossAmount          string `json:"gross_amount"`
}

type CancelPaymentRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

type InstallmentRequest struct {
	AppointmentID string     `json:"appointment_id"`
	DueDate       *time.Time `json:"due_date"`
}

type MarkSentRequest struct {
	Channel     DeliveryChannel `json:"channel"`
	Destination string          `json:"destination"`
}
