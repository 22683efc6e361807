package utils

import (
	"MedOffice/models"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCreateRequest() models.CreatePaymentRequest {
	return models.CreatePaymentRequest{
		AppointmentID:   "appt-1",
		Amount:          decimal.RequireFromString("10000"),
		PaymentMethod:   models.MethodCash,
		TreatmentType:   models.TreatmentMonthly,
		DiscountPercent: decimal.RequireFromString("20"),
	}
}

func TestValidateCreatePayment(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.CreatePaymentRequest)
		wantErr bool
	}{
		{"valid", func(r *models.CreatePaymentRequest) {}, false},
		{"missing appointment", func(r *models.CreatePaymentRequest) { r.AppointmentID = "" }, true},
		{"zero amount", func(r *models.CreatePaymentRequest) { r.Amount = decimal.Zero }, true},
		{"three decimals", func(r *models.CreatePaymentRequest) { r.Amount = decimal.RequireFromString("10.005") }, true},
		{"discount over 100", func(r *models.CreatePaymentRequest) { r.DiscountPercent = decimal.NewFromInt(101) }, true},
		{"negative discount", func(r *models.CreatePaymentRequest) { r.DiscountPercent = decimal.NewFromInt(-1) }, true},
		{"unknown method", func(r *models.CreatePaymentRequest) { r.PaymentMethod = "Barter" }, true},
		{"unknown treatment", func(r *models.CreatePaymentRequest) { r.TreatmentType = "Weekly" }, true},
		{"custom without sessions", func(r *models.CreatePaymentRequest) { r.TreatmentType = models.TreatmentCustom }, true},
		{"custom with sessions", func(r *models.CreatePaymentRequest) {
			r.TreatmentType = models.TreatmentCustom
			r.CustomSessions = 3
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			err := ValidateCreatePayment(req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCashPayment(t *testing.T) {
	assert.NoError(t, ValidateCashPayment(models.CashPaymentRequest{AmountReceived: decimal.NewFromInt(5), Currency: "ARS"}))
	assert.NoError(t, ValidateCashPayment(models.CashPaymentRequest{AmountReceived: decimal.NewFromInt(5)}))
	assert.Error(t, ValidateCashPayment(models.CashPaymentRequest{AmountReceived: decimal.NewFromInt(5), Currency: "pesos"}))
	assert.Error(t, ValidateCashPayment(models.CashPaymentRequest{}))
}

func TestValidateTransfer(t *testing.T) {
	assert.NoError(t, ValidateTransfer(models.TransferRequest{Reference: "T-1", TransferDate: time.Now()}))
	assert.Error(t, ValidateTransfer(models.TransferRequest{Reference: "T-1"}))
	assert.Error(t, ValidateTransfer(models.TransferRequest{TransferDate: time.Now()}))
}

func TestValidatePatientAndAppointment(t *testing.T) {
	patient := models.Patient{FirstName: "Ana", LastName: "Gomez", Email: "ana@example.com", Phone: "+5491100000001", DateOfBirth: "1990-04-01"}
	assert.NoError(t, ValidatePatient(patient))

	patient.Email = "not-an-email"
	assert.Error(t, ValidatePatient(patient))

	assert.NoError(t, ValidateAppointment(models.Appointment{Date: "2024-05-10", Time: "10:30"}))
	assert.Error(t, ValidateAppointment(models.Appointment{Date: "10/05/2024", Time: "10:30"}))
	assert.Error(t, ValidateAppointment(models.Appointment{Date: "2024-05-10", Time: "10:30", Status: "lost"}))
}

func TestValidateMarkSent(t *testing.T) {
	assert.NoError(t, ValidateMarkSent(models.MarkSentRequest{}))
	assert.NoError(t, ValidateMarkSent(models.MarkSentRequest{Channel: models.ChannelEmail}))
	assert.Error(t, ValidateMarkSent(models.MarkSentRequest{Channel: "Fax"}))
}
