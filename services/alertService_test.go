package services_test

import (
	"MedOffice/apperrors"
	"MedOffice/models"
	"MedOffice/services"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertService_SweepOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	past := f.now.Add(-72 * time.Hour)
	future := f.now.Add(72 * time.Hour)
	late := f.create(t, services.CreatePaymentInput{Amount: dec("1500"), DueDate: &past})
	onTime := f.create(t, services.CreatePaymentInput{Amount: dec("1500"), DueDate: &future})
	paid := f.create(t, services.CreatePaymentInput{Amount: dec("1500"), DueDate: &past})
	_, err := f.payments.RegisterCashPayment(ctx, paid.ID, dec("1500"), "", "")
	require.NoError(t, err)

	result, err := f.alerts.SweepOverdue(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Transitioned)
	assert.Empty(t, result.Failed)

	swept, err := f.store.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateOverdue, swept.State)
	require.Len(t, swept.StateHistory, 1)
	assert.Equal(t, services.ReasonAutomatic, swept.StateHistory[0].Reason)
	assert.Equal(t, models.StatePending, swept.StateHistory[0].PreviousState)

	overdueAlerts := alertsOfKind(swept, models.AlertPaymentOverdue)
	require.Len(t, overdueAlerts, 1)
	assert.Contains(t, overdueAlerts[0].Message, "1500.00")
	assert.Contains(t, overdueAlerts[0].Message, past.Format("2006-01-02"))

	untouched, err := f.store.GetByID(ctx, onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, untouched.State)

	again, err := f.alerts.SweepOverdue(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Transitioned)
	swept, err = f.store.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Len(t, alertsOfKind(swept, models.AlertPaymentOverdue), 1)

	requireInvariants(t, f.store.all())
}

func TestAlertService_DueAlerts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	due := f.now.Add(10 * 24 * time.Hour)
	p := f.create(t, services.CreatePaymentInput{Amount: dec("100"), TreatmentType: models.TreatmentMonthly, DueDate: &due})

	none, err := f.alerts.DueAlerts(ctx, f.now)
	require.NoError(t, err)
	assert.Empty(t, none)

	dueAlerts, err := f.alerts.DueAlerts(ctx, f.now.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, dueAlerts, 1)
	assert.Equal(t, p.ID, dueAlerts[0].PaymentID)
	assert.Equal(t, models.AlertSessionScheduled, dueAlerts[0].Alert.Kind)

	all, err := f.alerts.DueAlerts(ctx, due)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, !all[0].Alert.ScheduledAt.After(all[1].Alert.ScheduledAt))

	stored, err := f.store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestAlertService_MarkSent(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated calls keep the alert sent and count attempts", func(t *testing.T) {
		f := newFixture(t)
		p := f.create(t, services.CreatePaymentInput{Amount: dec("100")})
		alertID := p.Alerts[0].ID

		first, err := f.alerts.MarkSent(ctx, p.ID, alertID, models.ChannelEmail, "ana@example.com")
		require.NoError(t, err)
		sentAt := first.Alerts[0].SentAt
		require.NotNil(t, sentAt)
		assert.True(t, first.Alerts[0].Sent)
		assert.Equal(t, 1, first.Alerts[0].AttemptCount)
		assert.Equal(t, models.ChannelEmail, first.Alerts[0].DeliveryChannel)

		f.now = f.now.Add(time.Hour)
		second, err := f.alerts.MarkSent(ctx, p.ID, alertID, models.ChannelSMS, "+100")
		require.NoError(t, err)
		assert.True(t, second.Alerts[0].Sent)
		assert.Equal(t, *sentAt, *second.Alerts[0].SentAt)
		assert.Equal(t, 2, second.Alerts[0].AttemptCount)
		assert.Equal(t, f.now, *second.Alerts[0].LastAttemptAt)
		assert.Equal(t, models.ChannelEmail, second.Alerts[0].DeliveryChannel)
		assert.Equal(t, "ana@example.com", second.Alerts[0].Destination)
	})

	t.Run("alert can be addressed by position", func(t *testing.T) {
		f := newFixture(t)
		p := f.create(t, services.CreatePaymentInput{Amount: dec("100")})

		updated, err := f.alerts.MarkSent(ctx, p.ID, "1", "", "")
		require.NoError(t, err)
		assert.False(t, updated.Alerts[0].Sent)
		assert.True(t, updated.Alerts[1].Sent)
	})

	t.Run("unknown alert", func(t *testing.T) {
		f := newFixture(t)
		p := f.create(t, services.CreatePaymentInput{Amount: dec("100")})

		_, err := f.alerts.MarkSent(ctx, p.ID, "missing", "", "")
		assert.True(t, apperrors.IsNotFound(err))
		_, err = f.alerts.MarkSent(ctx, p.ID, "7", "", "")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unknown channel", func(t *testing.T) {
		f := newFixture(t)
		p := f.create(t, services.CreatePaymentInput{Amount: dec("100")})
		_, err := f.alerts.MarkSent(ctx, p.ID, p.Alerts[0].ID, "Pigeon", "")
		assert.True(t, apperrors.IsInvalidArgument(err))
	})
}

func TestAlertService_DispatchDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	reachable := f.create(t, services.CreatePaymentInput{Amount: dec("100")})
	unreachable := f.create(t, services.CreatePaymentInput{Amount: dec("100"), AppointmentID: "appt-3"})
	f.notifier.failFor["+5491100000002"] = true

	asOf := f.now.Add(7 * 24 * time.Hour)
	result, err := f.alerts.DispatchDue(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 2, result.Failed)

	require.Len(t, f.notifier.sent, 2)
	for _, msg := range f.notifier.sent {
		assert.Equal(t, models.ChannelWhatsApp, msg.Channel)
		assert.Equal(t, "+5491100000001", msg.Destination)
		assert.True(t, strings.HasPrefix(msg.Message, "Ana Gomez: "))
	}

	sent, err := f.store.GetByID(ctx, reachable.ID)
	require.NoError(t, err)
	for _, a := range sent.Alerts {
		assert.True(t, a.Sent)
		assert.Equal(t, "+5491100000001", a.Destination)
	}

	failed, err := f.store.GetByID(ctx, unreachable.ID)
	require.NoError(t, err)
	for _, a := range failed.Alerts {
		assert.False(t, a.Sent)
		assert.Equal(t, 1, a.AttemptCount)
		assert.Equal(t, "gateway unavailable", a.LastError)
	}

	remaining, err := f.alerts.DueAlerts(ctx, asOf)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}
