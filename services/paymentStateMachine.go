package services

import (
	"MedOffice/apperrors"
	"MedOffice/models"
	"time"
)

// ReasonAutomatic marks transitions not initiated by a user.
const ReasonAutomatic = "automatic"

var allowedTransitions = map[models.PaymentState][]models.PaymentState{
	models.StatePending: {models.StatePaid, models.StateOverdue, models.StateCancelled, models.StatePartial},
	models.StateOverdue: {models.StatePaid, models.StateCancelled},
	models.StatePartial: {models.StatePaid, models.StateCancelled},
}

// CanTransition reports whether the state machine defines from -> to.
func CanTransition(from, to models.PaymentState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validState(s models.PaymentState) bool {
	for _, known := range models.PaymentStates {
		if known == s {
			return true
		}
	}
	return false
}

// transition moves the payment to the target state and appends the history entry.
// It reports false when the payment already is in that state.
func transition(payment *models.Payment, to models.PaymentState, reason, actor string, at time.Time) (bool, error) {
	if !validState(to) {
		return false, apperrors.InvalidArgument("unknown payment state %q", to)
	}
	from := payment.State
	if from == to {
		return false, nil
	}
	if !CanTransition(from, to) {
		return false, apperrors.Conflict("payment %s cannot move from %s to %s", payment.ID, from, to)
	}

	payment.State = to
	payment.StateHistory = append(payment.StateHistory, models.StateChange{
		PreviousState: from,
		NewState:      to,
		Timestamp:     at,
		Reason:        reason,
		Actor:         actor,
	})
	return true, nil
}

// settleable reports whether the payment can still be paid.
func settleable(payment *models.Payment) error {
	if payment.State.IsTerminal() {
		return apperrors.Conflict("payment %s is already %s", payment.ID, payment.State)
	}
	return nil
}
