package services_test

import (
	"MedOffice/apperrors"
	"MedOffice/models"
	"MedOffice/services"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryStore keeps payments in memory and behaves like the repository:
// reads return copies and updates check the version.
type memoryStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	seq      int
	receipts int
	invoices int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{payments: make(map[string]*models.Payment)}
}

func (m *memoryStore) Create(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; ok {
		return fmt.Errorf("duplicate payment %s", payment.ID)
	}
	if payment.Version == 0 {
		payment.Version = 1
	}
	m.seq++
	payment.CreatedAt = time.Unix(int64(m.seq), 0)
	m.payments[payment.ID] = payment.Clone()
	return nil
}

func (m *memoryStore) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return m.GetForUpdate(ctx, id)
}

func (m *memoryStore) GetForUpdate(_ context.Context, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment %s not found", id)
	}
	return p.Clone(), nil
}

func (m *memoryStore) Update(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[payment.ID]
	if !ok {
		return apperrors.NotFound("payment %s not found", payment.ID)
	}
	if stored.Version != payment.Version {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("payment %s was modified concurrently", payment.ID), apperrors.ErrTransient)
	}
	payment.Version++
	m.payments[payment.ID] = payment.Clone()
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return apperrors.NotFound("payment %s not found", id)
	}
	delete(m.payments, id)
	return nil
}

func (m *memoryStore) Find(_ context.Context, f models.PaymentFilter) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Payment, 0)
	for _, p := range m.payments {
		if len(f.States) > 0 && !containsState(f.States, p.State) {
			continue
		}
		if f.PatientID != "" && p.PatientID != f.PatientID {
			continue
		}
		if f.AppointmentID != "" && p.AppointmentID != f.AppointmentID {
			continue
		}
		if f.TreatmentGroupID != "" && (p.TreatmentGroupID == nil || *p.TreatmentGroupID != f.TreatmentGroupID) {
			continue
		}
		if f.Method != "" && p.PaymentMethod != f.Method {
			continue
		}
		if f.TreatmentType != "" && p.TreatmentType != f.TreatmentType {
			continue
		}
		if f.PaidFrom != nil && (p.PaymentDate == nil || p.PaymentDate.Before(*f.PaidFrom)) {
			continue
		}
		if f.PaidTo != nil && (p.PaymentDate == nil || !p.PaymentDate.Before(*f.PaidTo)) {
			continue
		}
		if f.DueBefore != nil && (p.DueDate == nil || !p.DueDate.Before(*f.DueBefore)) {
			continue
		}
		out = append(out, *p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) Search(_ context.Context, term string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(term)
	out := make([]models.Payment, 0)
	for _, p := range m.payments {
		fields := []string{p.InvoiceNumber, p.ReceiptNumber, p.Observations}
		if t := p.MethodDetails().Transfer; t != nil {
			fields = append(fields, t.Reference)
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), needle) {
				out = append(out, *p.Clone())
				break
			}
		}
	}
	return out, nil
}

func (m *memoryStore) FindWithUnsentAlerts(_ context.Context) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Payment, 0)
	for _, p := range m.payments {
		for _, a := range p.Alerts {
			if !a.Sent {
				out = append(out, *p.Clone())
				break
			}
		}
	}
	return out, nil
}

func (m *memoryStore) NextReceiptNumber(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts++
	return fmt.Sprintf("REC-%06d", m.receipts), nil
}

func (m *memoryStore) NextInvoiceNumber(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices++
	return fmt.Sprintf("INV-%06d", m.invoices), nil
}

func (m *memoryStore) all() []models.Payment {
	out, _ := m.Find(context.Background(), models.PaymentFilter{})
	return out
}

func containsState(states []models.PaymentState, s models.PaymentState) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

type fakeAppointments map[string]*models.Appointment

func (f fakeAppointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	a, ok := f[id]
	if !ok {
		return nil, apperrors.NotFound("appointment %s not found", id)
	}
	return a, nil
}

type fakePatients map[string]*models.Patient

func (f fakePatients) GetByID(_ context.Context, id string) (*models.Patient, error) {
	p, ok := f[id]
	if !ok {
		return nil, apperrors.NotFound("patient %s not found", id)
	}
	return p, nil
}

type countingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *countingLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return fn(ctx)
}

// exclusiveLocker refuses a key that is already held, like the Redis locker once its retries run out.
type exclusiveLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *exclusiveLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return apperrors.New(apperrors.CodeConflict, "record "+key+" is being modified by another request", apperrors.ErrTransient)
	}
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

// interleavingStore runs beforeFind once, ahead of the next group listing.
type interleavingStore struct {
	*memoryStore
	beforeFind func()
}

func (s *interleavingStore) Find(ctx context.Context, f models.PaymentFilter) ([]models.Payment, error) {
	if hook := s.beforeFind; hook != nil {
		s.beforeFind = nil
		hook()
	}
	return s.memoryStore.Find(ctx, f)
}

type sentMessage struct {
	Channel     models.DeliveryChannel
	Destination string
	Message     string
}

type fakeNotifier struct {
	sent    []sentMessage
	failFor map[string]bool
}

func (n *fakeNotifier) Send(_ context.Context, channel models.DeliveryChannel, destination, message string) error {
	if n.failFor[destination] {
		return errors.New("gateway unavailable")
	}
	n.sent = append(n.sent, sentMessage{Channel: channel, Destination: destination, Message: message})
	return nil
}

type fakeWallet struct {
	calls int
}

func (w *fakeWallet) CreateCheckout(_ context.Context, payment *models.Payment, _ *models.Patient) (*models.WalletCheckout, error) {
	w.calls++
	return &models.WalletCheckout{
		PreferenceID: "pref-" + payment.ID,
		RedirectURL:  "https://wallet.example/checkout/" + payment.ID,
	}, nil
}

type fixture struct {
	now      time.Time
	store    *memoryStore
	locker   *countingLocker
	notifier *fakeNotifier
	wallet   *fakeWallet
	payments *services.PaymentService
	alerts   *services.AlertService
	stats    *services.StatisticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		now:      time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		store:    newMemoryStore(),
		locker:   &countingLocker{},
		notifier: &fakeNotifier{failFor: map[string]bool{}},
		wallet:   &fakeWallet{},
	}
	appointments := fakeAppointments{
		"appt-1": {ID: "appt-1", PatientID: "patient-1", Date: "2024-05-10", Time: "10:00"},
		"appt-2": {ID: "appt-2", PatientID: "patient-1", Date: "2024-05-17", Time: "10:00"},
		"appt-3": {ID: "appt-3", PatientID: "patient-2", Date: "2024-05-17", Time: "11:00"},
	}
	patients := fakePatients{
		"patient-1": {ID: "patient-1", FirstName: "Ana", LastName: "Gomez", Phone: "+5491100000001", Email: "ana@example.com"},
		"patient-2": {ID: "patient-2", FirstName: "Luis", Phone: "+5491100000002"},
	}
	f.payments = services.NewPaymentService(services.PaymentServiceDeps{
		Store:        f.store,
		Appointments: appointments,
		Patients:     patients,
		Locker:       f.locker,
		Plans:        services.NewTreatmentPlanCoordinator(models.ChannelWhatsApp),
		Wallet:       f.wallet,
		Log:          zap.NewNop(),
		Clock:        func() time.Time { return f.now },
		Currency:     "ARS",
	})
	f.alerts = services.NewAlertService(f.store, f.payments, patients, f.notifier, nil, zap.NewNop())
	f.stats = services.NewStatisticsService(f.store, time.UTC)
	return f
}

func (f *fixture) create(t *testing.T, in services.CreatePaymentInput) *models.Payment {
	t.Helper()
	if in.AppointmentID == "" {
		in.AppointmentID = "appt-1"
	}
	if in.Method == "" {
		in.Method = models.MethodCash
	}
	if in.TreatmentType == "" {
		in.TreatmentType = models.TreatmentSingleSession
	}
	p, err := f.payments.CreatePayment(context.Background(), in)
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func alertsOfKind(p *models.Payment, kind models.AlertKind) []models.Alert {
	var out []models.Alert
	for _, a := range p.Alerts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// requireInvariants checks the amount and plan invariants and that nothing ever left Paid.
func requireInvariants(t *testing.T, payments []models.Payment) {
	t.Helper()
	for _, p := range payments {
		discount := p.AmountOriginal.Mul(p.DiscountPercent).Div(decimal.NewFromInt(100))
		require.True(t, p.DiscountAmount.Equal(discount), "discount of %s", p.ID)
		require.True(t, p.Amount.Equal(p.AmountOriginal.Sub(p.DiscountAmount)), "amount of %s", p.ID)

		require.LessOrEqual(t, p.Plan.SessionsCompleted, p.Plan.SessionsTotal, "plan of %s", p.ID)
		require.Equal(t, p.Plan.SessionsCompleted < p.Plan.SessionsTotal, p.Plan.Active, "plan of %s", p.ID)

		for _, h := range p.StateHistory {
			require.NotEqual(t, models.StatePaid, h.PreviousState, "history of %s", p.ID)
		}
	}
}
