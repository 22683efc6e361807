package reports

import (
	"MedOffice/models"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	paymentsSheet = "Payments"
	summarySheet  = "Summary"
	pageSize      = 500
	dateLayout    = "2006-01-02"
)

var paymentHeaders = map[string]string{
	"A1": "Payment Date",
	"B1": "Receipt",
	"C1": "Invoice",
	"D1": "Patient",
	"E1": "Appointment",
	"F1": "Treatment",
	"G1": "Method",
	"H1": "Original",
	"I1": "Discount %",
	"J1": "Amount",
	"K1": "Sessions",
}

// PaymentLister pages through stored payments.
type PaymentLister interface {
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

// PaymentsExporter builds the collected payments workbook.
type PaymentsExporter struct {
	payments PaymentLister
	loc      *time.Location
}

func NewPaymentsExporter(payments PaymentLister, loc *time.Location) *PaymentsExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentsExporter{payments: payments, loc: loc}
}

// Workbook lists the payments settled in [from, to) with a per method summary sheet.
func (e *PaymentsExporter) Workbook(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	if !to.After(from) {
		return nil, errors.New("report window end must be after its start")
	}
	rows, err := e.collect(ctx, from, to)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	index := file.NewSheet(paymentsSheet)
	file.NewSheet(summarySheet)
	file.DeleteSheet("Sheet1")
	file.SetActiveSheet(index)

	for cell, title := range paymentHeaders {
		file.SetCellValue(paymentsSheet, cell, title)
	}
	for i := range rows {
		appendPaymentRow(file, i+2, rows[i], e.loc)
	}
	file.SetColWidth(paymentsSheet, "A", "K", 16)

	writeSummary(file, rows, from, to, e.loc)
	return file, nil
}

// Write streams the workbook as xlsx.
func (e *PaymentsExporter) Write(ctx context.Context, w io.Writer, from, to time.Time) error {
	file, err := e.Workbook(ctx, from, to)
	if err != nil {
		return err
	}
	return errors.Wrap(file.Write(w), "failed to write payments report")
}

func (e *PaymentsExporter) collect(ctx context.Context, from, to time.Time) ([]models.Payment, error) {
	var all []models.Payment
	for offset := 0; ; offset += pageSize {
		page, err := e.payments.ListPayments(ctx, models.PaymentFilter{
			States:   []models.PaymentState{models.StatePaid},
			PaidFrom: &from,
			PaidTo:   &to,
			Limit:    pageSize,
			Offset:   offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PaymentDate.Before(*all[j].PaymentDate)
	})
	return all, nil
}

func appendPaymentRow(file *excelize.File, row int, p models.Payment, loc *time.Location) {
	cell := func(col string) string { return fmt.Sprintf("%s%d", col, row) }

	file.SetCellValue(paymentsSheet, cell("A"), p.PaymentDate.In(loc).Format(dateLayout))
	file.SetCellValue(paymentsSheet, cell("B"), p.ReceiptNumber)
	file.SetCellValue(paymentsSheet, cell("C"), p.InvoiceNumber)
	file.SetCellValue(paymentsSheet, cell("D"), p.PatientID)
	file.SetCellValue(paymentsSheet, cell("E"), p.AppointmentID)
	file.SetCellValue(paymentsSheet, cell("F"), string(p.TreatmentType))
	file.SetCellValue(paymentsSheet, cell("G"), string(p.PaymentMethod))
	file.SetCellValue(paymentsSheet, cell("H"), p.AmountOriginal.StringFixed(2))
	file.SetCellValue(paymentsSheet, cell("I"), p.DiscountPercent.String())
	file.SetCellValue(paymentsSheet, cell("J"), p.Amount.StringFixed(2))
	file.SetCellValue(paymentsSheet, cell("K"), fmt.Sprintf("%d/%d", p.Plan.SessionsCompleted, p.Plan.SessionsTotal))
}

func writeSummary(file *excelize.File, rows []models.Payment, from, to time.Time, loc *time.Location) {
	file.SetCellValue(summarySheet, "A1", "From")
	file.SetCellValue(summarySheet, "B1", from.In(loc).Format(dateLayout))
	file.SetCellValue(summarySheet, "A2", "To")
	file.SetCellValue(summarySheet, "B2", to.In(loc).Format(dateLayout))
	file.SetCellValue(summarySheet, "A4", "Method")
	file.SetCellValue(summarySheet, "B4", "Payments")
	file.SetCellValue(summarySheet, "C4", "Amount")

	total := decimal.Zero
	row := 5
	for _, method := range models.PaymentMethods {
		count := 0
		amount := decimal.Zero
		for _, p := range rows {
			if p.PaymentMethod == method {
				count++
				amount = amount.Add(p.Amount)
			}
		}
		file.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(method))
		file.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), count)
		file.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), amount.StringFixed(2))
		total = total.Add(amount)
		row++
	}
	file.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Total")
	file.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), len(rows))
	file.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), total.StringFixed(2))
}
