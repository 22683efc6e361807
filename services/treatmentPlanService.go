package services

import (
	"MedOffice/apperrors"
	"MedOffice/models"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	singleSessionCadence = 24 * time.Hour
	multiSessionCadence  = 7 * 24 * time.Hour
)

// TreatmentPlanCoordinator keeps the session counters of a payment's plan
// and schedules the session reminders that go with them.
type TreatmentPlanCoordinator struct {
	channel models.DeliveryChannel
}

func NewTreatmentPlanCoordinator(channel models.DeliveryChannel) *TreatmentPlanCoordinator {
	if channel == "" {
		channel = models.ChannelWhatsApp
	}
	return &TreatmentPlanCoordinator{channel: channel}
}

// SessionsFor returns the number of sessions a treatment type covers.
func SessionsFor(treatmentType models.TreatmentType, customSessions int) (int, error) {
	switch treatmentType {
	case models.TreatmentSingleSession:
		return 1, nil
	case models.TreatmentBiweekly:
		return 2, nil
	case models.TreatmentMonthly:
		return 4, nil
	case models.TreatmentCustom:
		if customSessions < 1 {
			return 0, apperrors.InvalidArgument("custom treatment requires at least one session, got %d", customSessions)
		}
		return customSessions, nil
	default:
		return 0, apperrors.InvalidArgument("unknown treatment type %q", treatmentType)
	}
}

func sessionCadence(treatmentType models.TreatmentType) time.Duration {
	if treatmentType == models.TreatmentSingleSession {
		return singleSessionCadence
	}
	return multiSessionCadence
}

// InitializePlan starts a fresh plan on the payment and schedules the first session reminder.
func (c *TreatmentPlanCoordinator) InitializePlan(payment *models.Payment, treatmentType models.TreatmentType, customSessions int, now time.Time) error {
	total, err := SessionsFor(treatmentType, customSessions)
	if err != nil {
		return err
	}

	started := now
	payment.TreatmentType = treatmentType
	payment.Plan = models.TreatmentPlan{
		SessionsTotal:     total,
		SessionsCompleted: 0,
		SessionsRemaining: total,
		Active:            true,
		StartedAt:         &started,
	}
	c.scheduleSession(payment, now)
	return nil
}

// AdvanceSession records one completed session. Inactive plans are left untouched.
func (c *TreatmentPlanCoordinator) AdvanceSession(payment *models.Payment, now time.Time) {
	plan := &payment.Plan
	if !plan.Active {
		return
	}

	plan.SessionsCompleted++
	if plan.SessionsCompleted > plan.SessionsTotal {
		plan.SessionsCompleted = plan.SessionsTotal
	}
	plan.SessionsRemaining = remainingSessions(plan.SessionsTotal, plan.SessionsCompleted)

	if plan.SessionsCompleted == plan.SessionsTotal {
		completed := now
		plan.Active = false
		plan.CompletedAt = &completed
		c.appendAlert(payment, models.AlertTreatmentCompleted,
			fmt.Sprintf("Treatment completed: %d of %d sessions done", plan.SessionsCompleted, plan.SessionsTotal),
			now)
		return
	}
	c.scheduleSession(payment, now)
}

// SyncPlan copies the group's most advanced plan onto the payment before it advances.
func (c *TreatmentPlanCoordinator) SyncPlan(payment *models.Payment, group models.TreatmentPlan) {
	if group.SessionsTotal == 0 || group.SessionsCompleted <= payment.Plan.SessionsCompleted {
		return
	}
	payment.Plan = group
	payment.Plan.StartedAt = cloneTime(group.StartedAt)
	payment.Plan.CompletedAt = cloneTime(group.CompletedAt)
}

func (c *TreatmentPlanCoordinator) scheduleSession(payment *models.Payment, now time.Time) {
	next := payment.Plan.SessionsCompleted + 1
	c.appendAlert(payment, models.AlertSessionScheduled,
		fmt.Sprintf("Session %d of %d is scheduled", next, payment.Plan.SessionsTotal),
		now.Add(sessionCadence(payment.TreatmentType)))
}

func (c *TreatmentPlanCoordinator) appendAlert(payment *models.Payment, kind models.AlertKind, message string, at time.Time) {
	payment.Alerts = append(payment.Alerts, models.Alert{
		ID:              uuid.New().String(),
		Kind:            kind,
		Message:         message,
		ScheduledAt:     at,
		DeliveryChannel: c.channel,
	})
}

func remainingSessions(total, completed int) int {
	if completed >= total {
		return 0
	}
	return total - completed
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
