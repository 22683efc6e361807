package services

import (
	"MedOffice/models"
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is a count and sum of payment amounts.
type Totals struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (t *Totals) add(p models.Payment) {
	t.Count++
	t.Amount = t.Amount.Add(p.Amount)
}

// StatisticsService computes read-only rollups; every call rescans the store.
type StatisticsService struct {
	store PaymentStore
	loc   *time.Location
}

func NewStatisticsService(store PaymentStore, loc *time.Location) *StatisticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatisticsService{store: store, loc: loc}
}

func (s *StatisticsService) DailyRevenue(ctx context.Context, date time.Time) (Totals, error) {
	d := date.In(s.loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return s.paidBetween(ctx, from, from.AddDate(0, 0, 1))
}

func (s *StatisticsService) MonthlyRevenue(ctx context.Context, year int, month time.Month) (Totals, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)
	return s.paidBetween(ctx, from, from.AddDate(0, 1, 0))
}

func (s *StatisticsService) PendingTotals(ctx context.Context) (Totals, error) {
	return s.totalsFor(ctx, models.PaymentFilter{States: []models.PaymentState{models.StatePending, models.StatePartial}})
}

func (s *StatisticsService) OverdueTotals(ctx context.Context) (Totals, error) {
	return s.totalsFor(ctx, models.PaymentFilter{States: []models.PaymentState{models.StateOverdue}})
}

func (s *StatisticsService) ByMethod(ctx context.Context) (map[models.PaymentMethod]Totals, error) {
	paid, err := s.store.Find(ctx, models.PaymentFilter{States: []models.PaymentState{models.StatePaid}})
	if err != nil {
		return nil, err
	}
	out := make(map[models.PaymentMethod]Totals)
	for _, p := range paid {
		t := out[p.PaymentMethod]
		t.add(p)
		out[p.PaymentMethod] = t
	}
	return out, nil
}

func (s *StatisticsService) ByTreatmentType(ctx context.Context) (map[models.TreatmentType]Totals, error) {
	paid, err := s.store.Find(ctx, models.PaymentFilter{States: []models.PaymentState{models.StatePaid}})
	if err != nil {
		return nil, err
	}
	out := make(map[models.TreatmentType]Totals)
	for _, p := range paid {
		t := out[p.TreatmentType]
		t.add(p)
		out[p.TreatmentType] = t
	}
	return out, nil
}

func (s *StatisticsService) paidBetween(ctx context.Context, from, to time.Time) (Totals, error) {
	return s.totalsFor(ctx, models.PaymentFilter{
		States:   []models.PaymentState{models.StatePaid},
		PaidFrom: &from,
		PaidTo:   &to,
	})
}

func (s *StatisticsService) totalsFor(ctx context.Context, filter models.PaymentFilter) (Totals, error) {
	payments, err := s.store.Find(ctx, filter)
	if err != nil {
		return Totals{}, err
	}
	var t Totals
	for _, p := range payments {
		t.add(p)
	}
	return t, nil
}
