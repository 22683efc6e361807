package utils

import (
	"MedOffice/models"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountNotPositive   = errors.New("must be greater than zero")
	ErrTooManyDecimals     = errors.New("has too many decimal places")
	ErrPercentOutOfRange   = errors.New("must be between 0 and 100")
	ErrCustomNeedsSessions = errors.New("is required for Custom treatments")
)

var hundred = decimal.NewFromInt(100)

func ValidateCreatePayment(req models.CreatePaymentRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.AppointmentID, validation.Required),
		validation.Field(&req.Amount, validation.By(positiveAmount)),
		validation.Field(&req.PaymentMethod, validation.Required, validation.In(methodValues()...)),
		validation.Field(&req.TreatmentType, validation.Required, validation.In(treatmentValues()...)),
		validation.Field(&req.CustomSessions,
			validation.When(req.TreatmentType == models.TreatmentCustom, validation.Required.Error(ErrCustomNeedsSessions.Error()), validation.Min(1)),
			validation.Min(0),
		),
		validation.Field(&req.DiscountPercent, validation.By(percent)),
		validation.Field(&req.Observations, validation.Length(0, 1000)),
	)
}

func ValidateCashPayment(req models.CashPaymentRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.AmountReceived, validation.By(positiveAmount)),
		validation.Field(&req.Currency, validation.Length(3, 3), is.UpperCase),
	)
}

func ValidateTransfer(req models.TransferRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Reference, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Bank, validation.Length(0, 100)),
		validation.Field(&req.TransferDate, validation.Required),
	)
}

func ValidateWalletCallback(req models.WalletCallbackRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ExternalStatus, validation.Required),
		validation.Field(&req.GrossAmount, is.Float),
	)
}

func ValidateMarkSent(req models.MarkSentRequest) error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Channel, validation.In(channelValues()...)),
	)
}

func ValidatePatient(patient models.Patient) error {
	return validation.ValidateStruct(&patient,
		validation.Field(&patient.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&patient.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&patient.Email, is.EmailFormat),
		validation.Field(&patient.Phone, is.E164),
		validation.Field(&patient.DateOfBirth, validation.Date("2006-01-02")),
	)
}

func ValidateAppointment(appointment models.Appointment) error {
	return validation.ValidateStruct(&appointment,
		validation.Field(&appointment.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&appointment.Time, validation.Required, validation.Date("15:04")),
		validation.Field(&appointment.Status, validation.In("scheduled", "fulfilled", "cancelled")),
	)
}

func positiveAmount(value interface{}) error {
	amount, _ := value.(decimal.Decimal)
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrTooManyDecimals
	}
	return nil
}

func percent(value interface{}) error {
	pct, _ := value.(decimal.Decimal)
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return ErrPercentOutOfRange
	}
	if !pct.Equal(pct.Round(4)) {
		return ErrTooManyDecimals
	}
	return nil
}

func methodValues() []interface{} {
	out := make([]interface{}, len(models.PaymentMethods))
	for i, m := range models.PaymentMethods {
		out[i] = m
	}
	return out
}

func treatmentValues() []interface{} {
	out := make([]interface{}, len(models.TreatmentTypes))
	for i, t := range models.TreatmentTypes {
		out[i] = t
	}
	return out
}

func channelValues() []interface{} {
	out := make([]interface{}, len(models.DeliveryChannels))
	for i, c := range models.DeliveryChannels {
		out[i] = c
	}
	return out
}
