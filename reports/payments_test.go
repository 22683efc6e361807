package reports

import (
	"MedOffice/models"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	payments []models.Payment
	filters  []models.PaymentFilter
}

func (s *stubLister) ListPayments(_ context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	s.filters = append(s.filters, filter)
	if filter.Offset >= len(s.payments) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(s.payments) {
		end = len(s.payments)
	}
	return s.payments[filter.Offset:end], nil
}

func paidPayment(id string, method models.PaymentMethod, amount string, paidAt time.Time) models.Payment {
	return models.Payment{
		ID:             id,
		PatientID:      "patient-1",
		AppointmentID:  "appt-1",
		State:          models.StatePaid,
		PaymentMethod:  method,
		TreatmentType:  models.TreatmentSingleSession,
		AmountOriginal: decimal.RequireFromString(amount),
		Amount:         decimal.RequireFromString(amount),
		PaymentDate:    &paidAt,
		ReceiptNumber:  "REC-" + id,
		Plan:           models.TreatmentPlan{SessionsTotal: 1, SessionsCompleted: 1},
	}
}

func TestPaymentsExporter_Write(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	lister := &stubLister{payments: []models.Payment{
		paidPayment("2", models.MethodBankTransfer, "2500", from.AddDate(0, 0, 9)),
		paidPayment("1", models.MethodCash, "900", from.AddDate(0, 0, 2)),
	}}

	var buf bytes.Buffer
	require.NoError(t, NewPaymentsExporter(lister, time.UTC).Write(context.Background(), &buf, from, to))

	require.Len(t, lister.filters, 1)
	assert.Equal(t, []models.PaymentState{models.StatePaid}, lister.filters[0].States)
	assert.Equal(t, from, *lister.filters[0].PaidFrom)

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	rows := file.GetRows(paymentsSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, "Payment Date", rows[0][0])
	assert.Equal(t, "2024-05-03", rows[1][0])
	assert.Equal(t, "REC-1", rows[1][1])
	assert.Equal(t, "2500.00", rows[2][9])

	assert.Equal(t, "Total", file.GetCellValue(summarySheet, "A8"))
	assert.Equal(t, "3400.00", file.GetCellValue(summarySheet, "C8"))
	assert.Equal(t, "900.00", file.GetCellValue(summarySheet, "C5"))
}

func TestPaymentsExporter_Pages(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	lister := &stubLister{}
	for i := 0; i < pageSize+3; i++ {
		lister.payments = append(lister.payments, paidPayment("p", models.MethodCash, "10", from.Add(time.Duration(i)*time.Minute)))
	}

	file, err := NewPaymentsExporter(lister, nil).Workbook(context.Background(), from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, lister.filters, 2)
	assert.Len(t, file.GetRows(paymentsSheet), pageSize+4)
}

func TestPaymentsExporter_RejectsEmptyWindow(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewPaymentsExporter(&stubLister{}, nil).Workbook(context.Background(), from, from)
	assert.Error(t, err)
}
