package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentState is the lifecycle state of a payment
type PaymentState string

const (
	StatePending   PaymentState = "Pending"
	StatePartial   PaymentState = "Partial"
	StatePaid      PaymentState = "Paid"
	StateOverdue   PaymentState = "Overdue"
	StateCancelled PaymentState = "Cancelled"
)

// PaymentMethod is how the patient settles the payment
type PaymentMethod string

const (
	MethodCash          PaymentMethod = "Cash"
	MethodBankTransfer  PaymentMethod = "BankTransfer"
	MethodDigitalWallet PaymentMethod = "DigitalWallet"
)

// TreatmentType selects the number of sessions a payment plan covers
type TreatmentType string

const (
	TreatmentSingleSession TreatmentType = "SingleSession"
	TreatmentBiweekly      TreatmentType = "Biweekly"
	TreatmentMonthly       TreatmentType = "Monthly"
	TreatmentCustom        TreatmentType = "Custom"
)

// AlertKind classifies a scheduled reminder
type AlertKind string

const (
	AlertPaymentOverdue     AlertKind = "PaymentOverdue"
	AlertSessionScheduled   AlertKind = "SessionScheduled"
	AlertTreatmentCompleted AlertKind = "TreatmentCompleted"
	AlertPaymentReminder    AlertKind = "PaymentReminder"
	AlertFollowUpPending    AlertKind = "FollowUpPending"
)

// DeliveryChannel is the medium an alert is delivered through
type DeliveryChannel string

const (
	ChannelWhatsApp DeliveryChannel = "WhatsApp"
	ChannelEmail    DeliveryChannel = "Email"
	ChannelSMS      DeliveryChannel = "SMS"
)

var (
	PaymentStates    = []PaymentState{StatePending, StatePartial, StatePaid, StateOverdue, StateCancelled}
	PaymentMethods   = []PaymentMethod{MethodCash, MethodBankTransfer, MethodDigitalWallet}
	TreatmentTypes   = []TreatmentType{TreatmentSingleSession, TreatmentBiweekly, TreatmentMonthly, TreatmentCustom}
	AlertKinds       = []AlertKind{AlertPaymentOverdue, AlertSessionScheduled, AlertTreatmentCompleted, AlertPaymentReminder, AlertFollowUpPending}
	DeliveryChannels = []DeliveryChannel{ChannelWhatsApp, ChannelEmail, ChannelSMS}
)

// IsTerminal reports whether no transition leaves the state.
func (s PaymentState) IsTerminal() bool {
	return s == StatePaid || s == StateCancelled
}

// IsMultiSession reports whether the treatment spans more than one installment.
func (t TreatmentType) IsMultiSession() bool {
	return t != TreatmentSingleSession
}

// CashDetail records a cash settlement
type CashDetail struct {
	Received decimal.Decimal `json:"received"`
	Change   decimal.Decimal `json:"change"`
	Currency string          `json:"currency"`
}

// TransferDetail records a bank transfer
type TransferDetail struct {
	Reference    string     `json:"reference"`
	Bank         string     `json:"bank"`
	TransferDate time.Time  `json:"transfer_date"`
	Verified     bool       `json:"verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
}

// WalletDetail records the digital wallet checkout and its callback
type WalletDetail struct {
	ExternalPreferenceID string     `json:"external_preference_id"`
	ExternalPaymentID    string     `json:"external_payment_id"`
	ExternalStatus       string     `json:"external_status"`
	RedirectURL          string     `json:"redirect_url,omitempty"`
	Attempts             int        `json:"attempts"`
	SettledAt            *time.Time `json:"settled_at,omitempty"`
}

// PaymentDetails groups the method specific blocks; only the relevant one is set.
type PaymentDetails struct {
	Cash     *CashDetail     `json:"cash,omitempty"`
	Transfer *TransferDetail `json:"transfer,omitempty"`
	Wallet   *WalletDetail   `json:"wallet,omitempty"`
}

// TreatmentPlan tracks session progress of the payment's treatment
type TreatmentPlan struct {
	SessionsTotal     int        `gorm:"column:sessions_total;not null;default:0" json:"sessions_total"`
	SessionsCompleted int        `gorm:"column:sessions_completed;not null;default:0" json:"sessions_completed"`
	SessionsRemaining int        `gorm:"column:sessions_remaining;not null;default:0" json:"sessions_remaining"`
	Active            bool       `gorm:"column:active;not null;default:false" json:"active"`
	StartedAt         *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt       *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

// Alert is a scheduled reminder owned by a payment
type Alert struct {
	ID              string          `json:"id"`
	Kind            AlertKind       `json:"kind"`
	Message         string          `json:"message"`
	ScheduledAt     time.Time       `json:"scheduled_at"`
	Sent            bool            `json:"sent"`
	SentAt          *time.Time      `json:"sent_at,omitempty"`
	DeliveryChannel DeliveryChannel `json:"delivery_channel"`
	Destination     string          `json:"destination,omitempty"`
	AttemptCount    int             `json:"attempt_count"`
	LastAttemptAt   *time.Time      `json:"last_attempt_at,omitempty"`
	LastError       string          `json:"last_error,omitempty"`
}

// StateChange is one append-only entry of the payment state history
type StateChange struct {
	PreviousState PaymentState `json:"previous_state"`
	NewState      PaymentState `json:"new_state"`
	Timestamp     time.Time    `json:"timestamp"`
	Reason        string       `json:"reason"`
	Actor         string       `json:"actor,omitempty"`
}

// Payment model
type Payment struct {
	ID               string                             `gorm:"primaryKey;column:id" json:"id"`
	AppointmentID    string                             `gorm:"column:appointment_id;not null;index" json:"appointment_id"`
	PatientID        string                             `gorm:"column:patient_id;not null;index" json:"patient_id"`
	TreatmentGroupID *string                            `gorm:"column:treatment_group_id;index" json:"treatment_group_id,omitempty"`
	AmountOriginal   decimal.Decimal                    `gorm:"column:amount_original;type:decimal(14,2);not null" json:"amount_original"`
	DiscountPercent  decimal.Decimal                    `gorm:"column:discount_percent;type:decimal(7,4);not null;default:0" json:"discount_percent"`
	DiscountAmount   decimal.Decimal                    `gorm:"column:discount_amount;type:decimal(22,8);not null;default:0" json:"discount_amount"`
	Amount           decimal.Decimal                    `gorm:"column:amount;type:decimal(22,8);not null" json:"amount"`
	PaymentMethod    PaymentMethod                      `gorm:"column:payment_method;check:payment_method IN ('Cash', 'BankTransfer', 'DigitalWallet');not null;index" json:"payment_method"`
	State            PaymentState                       `gorm:"column:state;check:state IN ('Pending', 'Partial', 'Paid', 'Overdue', 'Cancelled');not null;index" json:"state"`
	TreatmentType    TreatmentType                      `gorm:"column:treatment_type;not null;index" json:"treatment_type"`
	PaymentDate      *time.Time                         `gorm:"column:payment_date;index" json:"payment_date,omitempty"`
	DueDate          *time.Time                         `gorm:"column:due_date;index" json:"due_date,omitempty"`
	InvoiceNumber    string                             `gorm:"column:invoice_number;index" json:"invoice_number,omitempty"`
	ReceiptNumber    string                             `gorm:"column:receipt_number;index" json:"receipt_number,omitempty"`
	Observations     string                             `gorm:"column:observations" json:"observations,omitempty"`
	Details          datatypes.JSONType[PaymentDetails] `gorm:"column:details;type:jsonb;not null" json:"details"`
	Plan             TreatmentPlan                      `gorm:"embedded;embeddedPrefix:plan_" json:"treatment_plan"`
	Alerts           datatypes.JSONSlice[Alert]         `gorm:"column:alerts;type:jsonb;not null" json:"alerts"`
	StateHistory     datatypes.JSONSlice[StateChange]   `gorm:"column:state_history;type:jsonb;not null" json:"state_history"`
	Version          int64                              `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt        time.Time                          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payment"
}

// MethodDetails returns a copy of the method specific blocks.
func (p *Payment) MethodDetails() PaymentDetails {
	return p.Details.Data()
}

// SetMethodDetails replaces the method specific blocks.
func (p *Payment) SetMethodDetails(d PaymentDetails) {
	p.Details = datatypes.NewJSONType(d)
}

// FindAlert returns the index of the alert whose id matches ref, or -1.
func (p *Payment) FindAlert(ref string) int {
	for i := range p.Alerts {
		if p.Alerts[i].ID == ref {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to mutate independently of p.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.TreatmentGroupID != nil {
		g := *p.TreatmentGroupID
		c.TreatmentGroupID = &g
	}
	c.PaymentDate = cloneTime(p.PaymentDate)
	c.DueDate = cloneTime(p.DueDate)
	c.Plan.StartedAt = cloneTime(p.Plan.StartedAt)
	c.Plan.CompletedAt = cloneTime(p.Plan.CompletedAt)

	d := p.MethodDetails()
	if d.Cash != nil {
		cash := *d.Cash
		d.Cash = &cash
	}
	if d.Transfer != nil {
		transfer := *d.Transfer
		transfer.VerifiedAt = cloneTime(d.Transfer.VerifiedAt)
		d.Transfer = &transfer
	}
	if d.Wallet != nil {
		wallet := *d.Wallet
		wallet.SettledAt = cloneTime(d.Wallet.SettledAt)
		d.Wallet = &wallet
	}
	c.SetMethodDetails(d)

	c.Alerts = make(datatypes.JSONSlice[Alert], len(p.Alerts))
	for i, a := range p.Alerts {
		a.SentAt = cloneTime(a.SentAt)
		a.LastAttemptAt = cloneTime(a.LastAttemptAt)
		c.Alerts[i] = a
	}
	c.StateHistory = make(datatypes.JSONSlice[StateChange], len(p.StateHistory))
	copy(c.StateHistory, p.StateHistory)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// PaymentFilter narrows payment listings; zero values are ignored.
type PaymentFilter struct {
	States           []PaymentState
	PatientID        string
	AppointmentID    string
	TreatmentGroupID string
	Method           PaymentMethod
	TreatmentType    TreatmentType
	PaidFrom         *time.Time
	PaidTo           *time.Time
	DueBefore        *time.Time
	Limit            int
	Offset           int
}

// WalletCheckout is the hosted checkout returned by the wallet provider
type WalletCheckout struct {
	PreferenceID string `json:"preference_id"`
	RedirectURL  string `json:"redirect_url"`
}
