package services

import (
	"MedOffice/models"
	"context"
	"time"
)

// PaymentStore is the persistence the payment services depend on.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetForUpdate(ctx context.Context, id string) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	Search(ctx context.Context, term string) ([]models.Payment, error)
	FindWithUnsentAlerts(ctx context.Context) ([]models.Payment, error)
	NextReceiptNumber(ctx context.Context) (string, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

type AppointmentLookup interface {
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
}

type PatientLookup interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
}

// Locker serializes writers of the same key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Notifier delivers a message through a channel.
type Notifier interface {
	Send(ctx context.Context, channel models.DeliveryChannel, destination, message string) error
}

// WalletGateway opens a hosted checkout for a payment.
type WalletGateway interface {
	CreateCheckout(ctx context.Context, payment *models.Payment, patient *models.Patient) (*models.WalletCheckout, error)
}

// Clock returns the current time; tests replace it.
type Clock func() time.Time
