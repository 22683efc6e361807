package services

import (
	"MedOffice/apperrors"
	"MedOffice/metrics"
	"MedOffice/models"
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DueAlert is an unsent alert together with the payment that owns it.
type DueAlert struct {
	PaymentID  string       `json:"payment_id"`
	PatientID  string       `json:"patient_id"`
	AlertIndex int          `json:"alert_index"`
	Alert      models.Alert `json:"alert"`
}

type SweepResult struct {
	Scanned      int      `json:"scanned"`
	Transitioned int      `json:"transitioned"`
	Failed       []string `json:"failed,omitempty"`
}

type DispatchResult struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}

// AlertService lists, delivers and acknowledges the alerts embedded in payments.
// It holds no timer; the cron jobs call SweepOverdue and DispatchDue.
type AlertService struct {
	store    PaymentStore
	payments *PaymentService
	patients PatientLookup
	notifier Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
	now      Clock
}

func NewAlertService(store PaymentStore, payments *PaymentService, patients PatientLookup, notifier Notifier, metrics *metrics.Collector, log *zap.Logger) *AlertService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertService{
		store:    store,
		payments: payments,
		patients: patients,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
		now:      payments.now,
	}
}

// DueAlerts returns every unsent alert scheduled at or before asOf, oldest first.
func (s *AlertService) DueAlerts(ctx context.Context, asOf time.Time) ([]DueAlert, error) {
	payments, err := s.store.FindWithUnsentAlerts(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]DueAlert, 0)
	for _, p := range payments {
		for i, a := range p.Alerts {
			if a.Sent || a.ScheduledAt.After(asOf) {
				continue
			}
			due = append(due, DueAlert{
				PaymentID:  p.ID,
				PatientID:  p.PatientID,
				AlertIndex: i,
				Alert:      a,
			})
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].Alert.ScheduledAt.Before(due[j].Alert.ScheduledAt)
	})
	return due, nil
}

// MarkSent flags the alert as delivered. Calling it again on a sent alert only counts the attempt.
func (s *AlertService) MarkSent(ctx context.Context, paymentID, alertRef string, channel models.DeliveryChannel, destination string) (*models.Payment, error) {
	if channel != "" && !validChannel(channel) {
		return nil, apperrors.InvalidArgument("unknown delivery channel %q", channel)
	}
	return s.payments.mutate(ctx, paymentID, func(ctx context.Context, p *models.Payment) error {
		idx, err := resolveAlert(p, alertRef)
		if err != nil {
			return err
		}
		now := s.now()
		alert := &p.Alerts[idx]
		alert.AttemptCount++
		alert.LastAttemptAt = &now
		if alert.Sent {
			return nil
		}
		sentAt := now
		alert.Sent = true
		alert.SentAt = &sentAt
		alert.LastError = ""
		if channel != "" {
			alert.DeliveryChannel = channel
		}
		if destination != "" {
			alert.Destination = destination
		}
		return nil
	})
}

// RecordAttempt counts a failed delivery without flagging the alert as sent.
func (s *AlertService) RecordAttempt(ctx context.Context, paymentID, alertRef, failure string) (*models.Payment, error) {
	return s.payments.mutate(ctx, paymentID, func(ctx context.Context, p *models.Payment) error {
		idx, err := resolveAlert(p, alertRef)
		if err != nil {
			return err
		}
		now := s.now()
		alert := &p.Alerts[idx]
		alert.AttemptCount++
		alert.LastAttemptAt = &now
		alert.LastError = failure
		return nil
	})
}

// SweepOverdue moves every Pending payment due before asOf to Overdue.
func (s *AlertService) SweepOverdue(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	candidates, err := s.store.Find(ctx, models.PaymentFilter{
		States:    []models.PaymentState{models.StatePending},
		DueBefore: &asOf,
	})
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(candidates)}
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		_, changed, err := s.payments.MarkOverdue(ctx, p.ID, asOf)
		if err != nil {
			s.log.Warn("failed to mark payment overdue", zap.String("payment_id", p.ID), zap.Error(err))
			result.Failed = append(result.Failed, p.ID)
			continue
		}
		if changed {
			result.Transitioned++
		}
	}

	s.log.Info("overdue sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("scanned", result.Scanned),
		zap.Int("transitioned", result.Transitioned),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// DispatchDue delivers every due alert to the patient and records the outcome on the alert.
func (s *AlertService) DispatchDue(ctx context.Context, asOf time.Time) (*DispatchResult, error) {
	if s.notifier == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "notification gateway is not configured", nil)
	}
	due, err := s.DueAlerts(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}
	patients := make(map[string]*models.Patient)
	for _, d := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++

		patient, ok := patients[d.PatientID]
		if !ok {
			patient, err = s.patients.GetByID(ctx, d.PatientID)
			if err != nil {
				s.log.Warn("failed to load patient for alert", zap.String("patient_id", d.PatientID), zap.Error(err))
				patient = nil
			}
			patients[d.PatientID] = patient
		}

		channel := d.Alert.DeliveryChannel
		destination := destinationFor(patient, channel)
		if destination == "" {
			s.recordFailure(ctx, d, "no destination for channel "+string(channel))
			result.Failed++
			continue
		}

		message := d.Alert.Message
		if patient != nil {
			message = patient.FullName() + ": " + message
		}
		if err := s.notifier.Send(ctx, channel, destination, message); err != nil {
			s.recordFailure(ctx, d, err.Error())
			result.Failed++
			continue
		}
		s.metrics.RecordDelivery(string(channel), true)
		if _, err := s.MarkSent(ctx, d.PaymentID, d.Alert.ID, channel, destination); err != nil {
			s.log.Warn("alert sent but not acknowledged", zap.String("payment_id", d.PaymentID), zap.String("alert_id", d.Alert.ID), zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}

	s.log.Info("alert dispatch finished",
		zap.Time("as_of", asOf),
		zap.Int("attempted", result.Attempted),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *AlertService) recordFailure(ctx context.Context, d DueAlert, failure string) {
	s.metrics.RecordDelivery(string(d.Alert.DeliveryChannel), false)
	if _, err := s.RecordAttempt(ctx, d.PaymentID, d.Alert.ID, failure); err != nil {
		s.log.Warn("failed to record alert attempt", zap.String("payment_id", d.PaymentID), zap.Error(err))
	}
}

// resolveAlert finds an alert by id, falling back to its position in the list.
func resolveAlert(p *models.Payment, ref string) (int, error) {
	if idx := p.FindAlert(ref); idx >= 0 {
		return idx, nil
	}
	if idx, err := strconv.Atoi(ref); err == nil && idx >= 0 && idx < len(p.Alerts) {
		return idx, nil
	}
	return -1, apperrors.NotFound("alert %s not found on payment %s", ref, p.ID)
}

func destinationFor(patient *models.Patient, channel models.DeliveryChannel) string {
	if patient == nil {
		return ""
	}
	switch channel {
	case models.ChannelEmail:
		return patient.Email
	case models.ChannelWhatsApp, models.ChannelSMS:
		return patient.Phone
	default:
		return ""
	}
}

func validChannel(c models.DeliveryChannel) bool {
	for _, known := range models.DeliveryChannels {
		if known == c {
			return true
		}
	}
	return false
}
