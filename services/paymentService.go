package services

import (
	"MedOffice/apperrors"
	"MedOffice/metrics"
	"MedOffice/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultDueWindow = 7 * 24 * time.Hour
	reminderLead     = 24 * time.Hour
	defaultListLimit = 100
	maxListLimit     = 500
)

var (
	hundred = decimal.NewFromInt(100)

	// errUnchanged aborts a mutation without writing the record.
	errUnchanged = errors.New("payment unchanged")
)

type PaymentServiceDeps struct {
	Store        PaymentStore
	Appointments AppointmentLookup
	Patients     PatientLookup
	Locker       Locker
	Plans        *TreatmentPlanCoordinator
	Wallet       WalletGateway
	Metrics      *metrics.Collector
	Log          *zap.Logger
	Clock        Clock
	Currency     string
}

// PaymentService owns the payment lifecycle. Every state change goes through applyTransition.
type PaymentService struct {
	store        PaymentStore
	appointments AppointmentLookup
	patients     PatientLookup
	locker       Locker
	plans        *TreatmentPlanCoordinator
	wallet       WalletGateway
	metrics      *metrics.Collector
	log          *zap.Logger
	now          Clock
	currency     string
}

func NewPaymentService(deps PaymentServiceDeps) *PaymentService {
	s := &PaymentService{
		store:        deps.Store,
		appointments: deps.Appointments,
		patients:     deps.Patients,
		locker:       deps.Locker,
		plans:        deps.Plans,
		wallet:       deps.Wallet,
		metrics:      deps.Metrics,
		log:          deps.Log,
		now:          deps.Clock,
		currency:     deps.Currency,
	}
	if s.plans == nil {
		s.plans = NewTreatmentPlanCoordinator(models.ChannelWhatsApp)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.currency == "" {
		s.currency = "ARS"
	}
	return s
}

type CreatePaymentInput struct {
	AppointmentID   string
	Amount          decimal.Decimal
	Method          models.PaymentMethod
	TreatmentType   models.TreatmentType
	CustomSessions  int
	DueDate         *time.Time
	DiscountPercent decimal.Decimal
	Observations    string
}

type TransferInput struct {
	Reference    string
	Bank         string
	TransferDate time.Time
	Verified     bool
}

type WalletCallbackInput struct {
	ExternalPreferenceID string
	ExternalPaymentID    string
	ExternalStatus       string
	// GrossAmount is the amount the wallet charged. When set, an approval settles only if it matches.
	GrossAmount string
}

// PaymentPatch lists the only fields updateFields may touch.
type PaymentPatch struct {
	DiscountPercent *decimal.Decimal      `json:"discount_percent"`
	PaymentMethod   *models.PaymentMethod `json:"payment_method"`
	DueDate         *time.Time            `json:"due_date"`
	Observations    *string               `json:"observations"`
	State           *models.PaymentState  `json:"state"`
	Reason          string                `json:"reason"`
	Actor           string                `json:"actor"`
}

type InstallmentInput struct {
	AppointmentID string
	DueDate       *time.Time
}

// TreatmentGroupProgress reports a treatment across its installments. Plan is the group's plan; the plan
// stored on a Pending installment is a snapshot taken when it was created and is re-synced when it is paid.
type TreatmentGroupProgress struct {
	TreatmentGroupID string               `json:"treatment_group_id"`
	Plan             models.TreatmentPlan `json:"treatment_plan"`
	Installments     []models.Payment     `json:"installments"`
	PaidInstallments int                  `json:"paid_installments"`
}

func (s *PaymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*models.Payment, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := validateDiscountPercent(in.DiscountPercent); err != nil {
		return nil, err
	}
	if !validMethod(in.Method) {
		return nil, apperrors.InvalidArgument("unknown payment method %q", in.Method)
	}

	appointment, err := s.appointments.GetByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	payment := &models.Payment{
		ID:              uuid.New().String(),
		AppointmentID:   appointment.ID,
		PatientID:       appointment.PatientID,
		AmountOriginal:  in.Amount,
		DiscountPercent: in.DiscountPercent,
		PaymentMethod:   in.Method,
		State:           models.StatePending,
		DueDate:         dueOrDefault(in.DueDate, now),
		Observations:    in.Observations,
		Alerts:          datatypes.JSONSlice[models.Alert]{},
		StateHistory:    datatypes.JSONSlice[models.StateChange]{},
	}
	payment.SetMethodDetails(models.PaymentDetails{})
	applyDiscount(payment)

	if err := s.plans.InitializePlan(payment, in.TreatmentType, in.CustomSessions, now); err != nil {
		return nil, err
	}
	if in.TreatmentType.IsMultiSession() {
		groupID := uuid.New().String()
		payment.TreatmentGroupID = &groupID
	}
	s.scheduleReminder(payment, now)

	if err := s.store.Create(ctx, payment); err != nil {
		return nil, err
	}
	s.log.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("appointment_id", payment.AppointmentID),
		zap.String("amount", payment.Amount.String()),
		zap.String("treatment_type", string(payment.TreatmentType)),
	)
	return payment, nil
}

// GetPayment returns the payment, moving it to Overdue first when it is past due.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !pastDue(payment, now) {
		return payment, nil
	}
	updated, _, err := s.MarkOverdue(ctx, id, now)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	for _, st := range filter.States {
		if !validState(st) {
			return nil, apperrors.InvalidArgument("unknown payment state %q", st)
		}
	}
	return s.store.Find(ctx, filter)
}

func (s *PaymentService) Search(ctx context.Context, query string) ([]models.Payment, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.InvalidArgument("search query is required")
	}
	return s.store.Search(ctx, query)
}

func (s *PaymentService) RegisterCashPayment(ctx context.Context, id string, received decimal.Decimal, currency, actor string) (*models.Payment, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if err := settleable(p); err != nil {
			return err
		}
		if received.LessThan(p.Amount) {
			return apperrors.InvalidArgument("amount received %s is less than amount due %s", received.String(), p.Amount.StringFixed(2))
		}
		if currency == "" {
			currency = s.currency
		}

		details := p.MethodDetails()
		details.Cash = &models.CashDetail{
			Received: received,
			Change:   received.Sub(p.Amount),
			Currency: currency,
		}
		p.SetMethodDetails(details)
		p.PaymentMethod = models.MethodCash
		return s.applyTransition(ctx, p, models.StatePaid, "cash payment registered", actor, s.now())
	})
}

// VerifyBankTransfer stores the transfer and, once verified, settles the payment on the transfer date.
func (s *PaymentService) VerifyBankTransfer(ctx context.Context, id string, in TransferInput, actor string) (*models.Payment, error) {
	if strings.TrimSpace(in.Reference) == "" {
		return nil, apperrors.InvalidArgument("transfer reference is required")
	}
	if in.TransferDate.IsZero() {
		return nil, apperrors.InvalidArgument("transfer date is required")
	}

	return s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if err := settleable(p); err != nil {
			return err
		}

		detail := &models.TransferDetail{
			Reference:    in.Reference,
			Bank:         in.Bank,
			TransferDate: in.TransferDate,
			Verified:     in.Verified,
		}
		if in.Verified {
			verifiedAt := s.now()
			detail.VerifiedAt = &verifiedAt
		}
		details := p.MethodDetails()
		details.Transfer = detail
		p.SetMethodDetails(details)

		if !in.Verified {
			return nil
		}
		p.PaymentMethod = models.MethodBankTransfer
		return s.applyTransition(ctx, p, models.StatePaid, "bank transfer verified", actor, in.TransferDate)
	})
}

func (s *PaymentService) RecordWalletCallback(ctx context.Context, id string, in WalletCallbackInput, actor string) (*models.Payment, error) {
	status := strings.ToLower(strings.TrimSpace(in.ExternalStatus))
	if status == "" {
		return nil, apperrors.InvalidArgument("external status is required")
	}

	return s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		details := p.MethodDetails()
		wallet := details.Wallet
		if wallet == nil {
			wallet = &models.WalletDetail{}
		}
		if in.ExternalPreferenceID != "" {
			wallet.ExternalPreferenceID = in.ExternalPreferenceID
		}
		if in.ExternalPaymentID != "" {
			wallet.ExternalPaymentID = in.ExternalPaymentID
		}
		wallet.ExternalStatus = status
		details.Wallet = wallet

		now := s.now()
		switch status {
		case "approved":
			if p.State == models.StatePaid {
				p.SetMethodDetails(details)
				return nil
			}
			if err := settleable(p); err != nil {
				return err
			}
			if in.GrossAmount != "" {
				charged, err := decimal.NewFromString(strings.TrimSpace(in.GrossAmount))
				if err != nil {
					return apperrors.InvalidArgument("invalid gross amount %q", in.GrossAmount)
				}
				if due := walletGross(p.Amount); !charged.Equal(due) {
					p.SetMethodDetails(details)
					s.plans.appendAlert(p, models.AlertFollowUpPending,
						fmt.Sprintf("Wallet charged %s %s but %s is due, review before settling", charged.StringFixed(2), s.currency, due.StringFixed(2)),
						now)
					s.log.Warn("wallet approval amount does not match the payment",
						zap.String("payment_id", p.ID),
						zap.String("charged", charged.String()),
						zap.String("due", due.String()),
					)
					return nil
				}
			}
			settled := now
			wallet.SettledAt = &settled
			p.SetMethodDetails(details)
			p.PaymentMethod = models.MethodDigitalWallet
			return s.applyTransition(ctx, p, models.StatePaid, "wallet payment approved", actor, now)
		case "rejected":
			if !p.State.IsTerminal() {
				wallet.SettledAt = nil
				wallet.Attempts++
				s.plans.appendAlert(p, models.AlertFollowUpPending,
					fmt.Sprintf("Wallet payment of %s %s was rejected, follow up with the patient", p.Amount.StringFixed(2), s.currency),
					now)
			}
			p.SetMethodDetails(details)
			return nil
		default:
			p.SetMethodDetails(details)
			return nil
		}
	})
}

// UpdateFields applies an allow-listed patch. A state change is routed through the state machine.
func (s *PaymentService) UpdateFields(ctx context.Context, id string, patch PaymentPatch) (*models.Payment, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if patch.DiscountPercent != nil {
			if p.State.IsTerminal() {
				return apperrors.Conflict("discount cannot change on a %s payment", p.State)
			}
			if err := validateDiscountPercent(*patch.DiscountPercent); err != nil {
				return err
			}
			p.DiscountPercent = *patch.DiscountPercent
			applyDiscount(p)
		}
		if patch.PaymentMethod != nil && *patch.PaymentMethod != p.PaymentMethod {
			if p.State == models.StatePaid {
				return apperrors.Conflict("payment method cannot change once paid")
			}
			if !validMethod(*patch.PaymentMethod) {
				return apperrors.InvalidArgument("unknown payment method %q", *patch.PaymentMethod)
			}
			p.PaymentMethod = *patch.PaymentMethod
		}
		if patch.DueDate != nil {
			if p.State.IsTerminal() {
				return apperrors.Conflict("due date cannot change on a %s payment", p.State)
			}
			due := *patch.DueDate
			p.DueDate = &due
		}
		if patch.Observations != nil {
			p.Observations = *patch.Observations
		}
		if patch.State != nil {
			reason := patch.Reason
			if reason == "" {
				reason = "updated"
			}
			return s.applyTransition(ctx, p, *patch.State, reason, patch.Actor, s.now())
		}
		return nil
	})
}

func (s *PaymentService) CancelPayment(ctx context.Context, id, reason, actor string) (*models.Payment, error) {
	if reason == "" {
		reason = "cancelled"
	}
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if p.State == models.StateCancelled {
			return errUnchanged
		}
		return s.applyTransition(ctx, p, models.StateCancelled, reason, actor, s.now())
	})
}

// DeletePayment removes the payment unless it is paid and invoiced.
func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	return s.lockPayment(ctx, id, func(ctx context.Context) error {
		payment, err := s.store.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment.State == models.StatePaid && payment.InvoiceNumber != "" {
			return apperrors.Conflict("payment %s is invoiced as %s, cancel it instead", id, payment.InvoiceNumber)
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
		s.log.Info("payment deleted", zap.String("payment_id", id))
		return nil
	})
}

// IssueInvoice assigns an invoice number to a paid payment; an existing number is kept.
func (s *PaymentService) IssueInvoice(ctx context.Context, id string) (*models.Payment, error) {
	return s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if p.State != models.StatePaid {
			return apperrors.Conflict("payment %s is %s, only paid payments are invoiced", id, p.State)
		}
		if p.InvoiceNumber != "" {
			return errUnchanged
		}
		number, err := s.store.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}
		p.InvoiceNumber = number
		return nil
	})
}

// MarkOverdue moves a past-due Pending payment to Overdue. It reports whether anything changed.
func (s *PaymentService) MarkOverdue(ctx context.Context, id string, asOf time.Time) (*models.Payment, bool, error) {
	changed := false
	payment, err := s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if !pastDue(p, asOf) {
			return errUnchanged
		}
		changed = true
		return s.applyTransition(ctx, p, models.StateOverdue, ReasonAutomatic, "", s.now())
	})
	return payment, changed, err
}

// CreateNextInstallment adds the next Pending installment to the treatment group of payment id.
func (s *PaymentService) CreateNextInstallment(ctx context.Context, id string, in InstallmentInput) (*models.Payment, error) {
	source, err := s.store.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.TreatmentGroupID == nil {
		return nil, apperrors.Conflict("payment %s is not part of a multi-session treatment", id)
	}
	groupID := *source.TreatmentGroupID

	var created *models.Payment
	err = s.withLock(ctx, groupLockKey(groupID), func(ctx context.Context) error {
		group, err := s.store.Find(ctx, models.PaymentFilter{TreatmentGroupID: groupID})
		if err != nil {
			return err
		}
		plan := mostAdvancedPlan(group)
		if !plan.Active || plan.SessionsCompleted >= plan.SessionsTotal {
			return apperrors.Conflict("treatment %s is already completed", groupID)
		}
		live := 0
		for _, p := range group {
			if p.State != models.StateCancelled {
				live++
			}
		}
		if live >= plan.SessionsTotal {
			return apperrors.Conflict("treatment %s already has %d installments", groupID, live)
		}

		appointmentID := in.AppointmentID
		if appointmentID == "" {
			appointmentID = source.AppointmentID
		}
		appointment, err := s.appointments.GetByID(ctx, appointmentID)
		if err != nil {
			return err
		}
		if appointment.PatientID != source.PatientID {
			return apperrors.InvalidArgument("appointment %s belongs to another patient", appointmentID)
		}

		now := s.now()
		gid := groupID
		next := &models.Payment{
			ID:               uuid.New().String(),
			AppointmentID:    appointment.ID,
			PatientID:        source.PatientID,
			TreatmentGroupID: &gid,
			AmountOriginal:   source.AmountOriginal,
			DiscountPercent:  source.DiscountPercent,
			PaymentMethod:    source.PaymentMethod,
			State:            models.StatePending,
			TreatmentType:    source.TreatmentType,
			DueDate:          dueOrDefault(in.DueDate, now),
			Plan:             plan,
			Alerts:           datatypes.JSONSlice[models.Alert]{},
			StateHistory:     datatypes.JSONSlice[models.StateChange]{},
		}
		// snapshot of the group plan; the Paid transition re-syncs it before advancing
		next.Plan.StartedAt = cloneTime(plan.StartedAt)
		next.Plan.CompletedAt = nil
		next.SetMethodDetails(models.PaymentDetails{})
		applyDiscount(next)
		s.scheduleReminder(next, now)

		if err := s.store.Create(ctx, next); err != nil {
			return err
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("installment created",
		zap.String("payment_id", created.ID),
		zap.String("treatment_group_id", groupID),
	)
	return created, nil
}

func (s *PaymentService) GroupProgress(ctx context.Context, groupID string) (*TreatmentGroupProgress, error) {
	group, err := s.store.Find(ctx, models.PaymentFilter{TreatmentGroupID: groupID})
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, apperrors.NotFound("treatment group %s not found", groupID)
	}
	progress := &TreatmentGroupProgress{
		TreatmentGroupID: groupID,
		Plan:             mostAdvancedPlan(group),
		Installments:     group,
	}
	for _, p := range group {
		if p.State == models.StatePaid {
			progress.PaidInstallments++
		}
	}
	return progress, nil
}

// CreateWalletCheckout opens a hosted wallet checkout and keeps its preference on the payment.
func (s *PaymentService) CreateWalletCheckout(ctx context.Context, id string) (*models.Payment, *models.WalletCheckout, error) {
	if s.wallet == nil {
		return nil, nil, apperrors.New(apperrors.CodeInternal, "digital wallet gateway is not configured", nil)
	}

	var checkout *models.WalletCheckout
	payment, err := s.mutate(ctx, id, func(ctx context.Context, p *models.Payment) error {
		if err := settleable(p); err != nil {
			return err
		}
		patient, err := s.patients.GetByID(ctx, p.PatientID)
		if err != nil {
			return err
		}
		checkout, err = s.wallet.CreateCheckout(ctx, p, patient)
		if err != nil {
			return apperrors.Wrap(err, "failed to create wallet checkout")
		}

		details := p.MethodDetails()
		wallet := details.Wallet
		if wallet == nil {
			wallet = &models.WalletDetail{}
		}
		wallet.ExternalPreferenceID = checkout.PreferenceID
		wallet.RedirectURL = checkout.RedirectURL
		wallet.ExternalStatus = "pending"
		details.Wallet = wallet
		p.SetMethodDetails(details)
		p.PaymentMethod = models.MethodDigitalWallet
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, checkout, nil
}

// applyTransition is the single entry point for state changes and their side effects.
func (s *PaymentService) applyTransition(ctx context.Context, p *models.Payment, to models.PaymentState, reason, actor string, effectiveAt time.Time) error {
	now := s.now()
	from := p.State
	changed, err := transition(p, to, reason, actor, now)
	if err != nil || !changed {
		return err
	}
	s.metrics.RecordTransition(string(from), string(to))

	switch to {
	case models.StatePaid:
		paidAt := effectiveAt
		p.PaymentDate = &paidAt
		if p.ReceiptNumber == "" {
			receipt, err := s.store.NextReceiptNumber(ctx)
			if err != nil {
				return err
			}
			p.ReceiptNumber = receipt
		}
		if err := s.advancePlan(ctx, p, now); err != nil {
			return err
		}
	case models.StateOverdue:
		due := now
		if p.DueDate != nil {
			due = *p.DueDate
		}
		s.plans.appendAlert(p, models.AlertPaymentOverdue,
			fmt.Sprintf("Payment of %s %s was due on %s and is overdue", p.Amount.StringFixed(2), s.currency, due.Format("2006-01-02")),
			now)
	}

	s.log.Info("payment state changed",
		zap.String("payment_id", p.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason),
	)
	return nil
}

// advancePlan counts one session for the paid payment, starting from the group's most advanced plan.
// Callers hold the group lock, so sibling installments cannot advance from the same baseline.
func (s *PaymentService) advancePlan(ctx context.Context, p *models.Payment, now time.Time) error {
	if p.TreatmentGroupID != nil {
		group, err := s.store.Find(ctx, models.PaymentFilter{TreatmentGroupID: *p.TreatmentGroupID})
		if err != nil {
			return err
		}
		siblings := make([]models.Payment, 0, len(group))
		for _, g := range group {
			if g.ID != p.ID {
				siblings = append(siblings, g)
			}
		}
		s.plans.SyncPlan(p, mostAdvancedPlan(siblings))
	}
	s.plans.AdvanceSession(p, now)
	return nil
}

func (s *PaymentService) scheduleReminder(p *models.Payment, now time.Time) {
	if p.DueDate == nil {
		return
	}
	at := p.DueDate.Add(-reminderLead)
	if at.Before(now) {
		at = now
	}
	s.plans.appendAlert(p, models.AlertPaymentReminder,
		fmt.Sprintf("Payment of %s %s is due on %s", p.Amount.StringFixed(2), s.currency, p.DueDate.Format("2006-01-02")),
		at)
}

// mutate reads the stored payment, applies fn and writes it back under the record lock.
// Nothing is written when fn fails.
func (s *PaymentService) mutate(ctx context.Context, id string, fn func(ctx context.Context, p *models.Payment) error) (*models.Payment, error) {
	var result *models.Payment
	err := s.lockPayment(ctx, id, func(ctx context.Context) error {
		payment, err := s.store.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, payment); err != nil {
			if errors.Is(err, errUnchanged) {
				result = payment
				return nil
			}
			return err
		}
		if err := s.store.Update(ctx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockPayment runs fn holding the payment lock and, for installments, the treatment group lock first.
// The group id never changes, so it is read before locking.
func (s *PaymentService) lockPayment(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.TreatmentGroupID == nil {
		return s.withLock(ctx, paymentLockKey(id), fn)
	}
	return s.withLock(ctx, groupLockKey(*current.TreatmentGroupID), func(ctx context.Context) error {
		return s.withLock(ctx, paymentLockKey(id), fn)
	})
}

func paymentLockKey(id string) string { return "payment:" + id }

func groupLockKey(groupID string) string { return "treatment_group:" + groupID }

func (s *PaymentService) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, key, fn)
}

// walletGross is the amount sent to the wallet at checkout, rounded to whole units.
func walletGross(amount decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(amount.Round(0).IntPart())
}

func applyDiscount(p *models.Payment) {
	p.DiscountAmount = p.AmountOriginal.Mul(p.DiscountPercent).Div(hundred)
	p.Amount = p.AmountOriginal.Sub(p.DiscountAmount)
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.InvalidArgument("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.InvalidArgument("amount allows at most 2 decimal places")
	}
	return nil
}

func validateDiscountPercent(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return apperrors.InvalidArgument("discount percent must be between 0 and 100")
	}
	if !pct.Equal(pct.Round(4)) {
		return apperrors.InvalidArgument("discount percent allows at most 4 decimal places")
	}
	return nil
}

func validMethod(m models.PaymentMethod) bool {
	for _, known := range models.PaymentMethods {
		if known == m {
			return true
		}
	}
	return false
}

func pastDue(p *models.Payment, asOf time.Time) bool {
	return p.State == models.StatePending && p.DueDate != nil && p.DueDate.Before(asOf)
}

func dueOrDefault(due *time.Time, now time.Time) *time.Time {
	if due != nil {
		d := *due
		return &d
	}
	d := now.Add(defaultDueWindow)
	return &d
}

func mostAdvancedPlan(payments []models.Payment) models.TreatmentPlan {
	var best models.TreatmentPlan
	found := false
	for _, p := range payments {
		if !found || p.Plan.SessionsCompleted > best.SessionsCompleted {
			best = p.Plan
			found = true
		}
	}
	return best
}
