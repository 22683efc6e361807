package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_CloneIsIndependent(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	group := "group-1"
	original := &Payment{
		ID:               "pay-1",
		TreatmentGroupID: &group,
		Amount:           decimal.NewFromInt(1000),
		DueDate:          &now,
		Plan:             TreatmentPlan{SessionsTotal: 4, StartedAt: &now},
		Alerts:           []Alert{{ID: "a-1", Kind: AlertPaymentReminder, ScheduledAt: now}},
		StateHistory:     []StateChange{{PreviousState: StatePending, NewState: StatePartial}},
	}
	original.SetMethodDetails(PaymentDetails{Transfer: &TransferDetail{Reference: "T-1", VerifiedAt: &now}})

	clone := original.Clone()
	*clone.TreatmentGroupID = "group-2"
	*clone.DueDate = now.Add(time.Hour)
	clone.Alerts[0].Sent = true
	clone.StateHistory[0].Reason = "edited"
	details := clone.MethodDetails()
	details.Transfer.Reference = "T-2"
	clone.SetMethodDetails(details)

	assert.Equal(t, "group-1", *original.TreatmentGroupID)
	assert.Equal(t, now, *original.DueDate)
	assert.False(t, original.Alerts[0].Sent)
	assert.Empty(t, original.StateHistory[0].Reason)
	require.NotNil(t, original.MethodDetails().Transfer)
	assert.Equal(t, "T-1", original.MethodDetails().Transfer.Reference)
}

func TestPayment_FindAlert(t *testing.T) {
	p := &Payment{Alerts: []Alert{{ID: "a-1"}, {ID: "a-2"}}}
	assert.Equal(t, 1, p.FindAlert("a-2"))
	assert.Equal(t, -1, p.FindAlert("a-3"))
}

func TestPaymentState_IsTerminal(t *testing.T) {
	assert.True(t, StatePaid.IsTerminal())
	assert.True(t, StateCancelled.IsTerminal())
	assert.False(t, StateOverdue.IsTerminal())
	assert.False(t, TreatmentSingleSession.IsMultiSession())
	assert.True(t, TreatmentCustom.IsMultiSession())
}
