package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

func candidateAppointment() Appointment {
	return Appointment{
		ProviderID: "dr-smith",
		Date:       json_types.MustDate("2024-06-10"),
		StartTime:  json_types.MustTimeOfDay("10:00"),
		EndTime:    json_types.MustTimeOfDay("10:30"),
		Status:     AppointmentStatusConfirmed,
		Customer:   Customer{Name: "Ann"},
	}
}

func awaitingChoice(t *testing.T) *ConflictResolution {
	t.Helper()

	resolution := NewConflictResolution("r-1", candidateAppointment())
	existing := candidateAppointment()
	existing.ID = "existing"
	require.NoError(t, resolution.DetectConflict(existing))
	return resolution
}

func TestConflictResolutionCommit(t *testing.T) {
	resolution := NewConflictResolution("r-1", candidateAppointment())
	assert.Equal(t, ConflictResolutionStateIdle, resolution.State)

	require.NoError(t, resolution.Commit("a-1"))
	assert.True(t, resolution.IsResolved())
	assert.Equal(t, "a-1", resolution.AppointmentID)
	assert.Equal(t, ConflictOutcomeCommitted, resolution.Outcome)

	// Из resolved переходов нет
	assert.ErrorIs(t, resolution.DetectConflict(candidateAppointment()), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.Commit("a-2"), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.BeginReplace(), ErrInvalidTransition)
}

func TestConflictResolutionReplaceSuccess(t *testing.T) {
	resolution := awaitingChoice(t)
	assert.Equal(t, ConflictResolutionStateAwaitingChoice, resolution.State)
	assert.Equal(t, "existing", resolution.Conflict.ID)
	assert.Equal(t, ConflictOutcomeConflict, resolution.Outcome)

	require.NoError(t, resolution.BeginReplace())
	assert.Equal(t, ConflictResolutionStateResolving, resolution.State)

	require.NoError(t, resolution.Replaced("a-2"))
	assert.True(t, resolution.IsResolved())
	assert.Equal(t, "a-2", resolution.AppointmentID)
	assert.Equal(t, ConflictOutcomeReplaced, resolution.Outcome)
}

func TestConflictResolutionCancelFailedReturnsToChoice(t *testing.T) {
	resolution := awaitingChoice(t)
	require.NoError(t, resolution.BeginReplace())

	require.NoError(t, resolution.CancelFailed())
	assert.Equal(t, ConflictResolutionStateAwaitingChoice, resolution.State)
	assert.Equal(t, ConflictOutcomePartialFailure, resolution.Outcome)
	// Конфликт и кандидат сохранены, оператор может повторить
	assert.NotNil(t, resolution.Conflict)
	assert.NotNil(t, resolution.Candidate)
	assert.NoError(t, resolution.BeginReplace())
}

func TestConflictResolutionCreateFailed(t *testing.T) {
	resolution := awaitingChoice(t)
	require.NoError(t, resolution.BeginReplace())

	require.NoError(t, resolution.CreateFailed())
	assert.Equal(t, ConflictResolutionStateIdle, resolution.State)
	assert.Nil(t, resolution.Conflict)
	assert.NotNil(t, resolution.Candidate)
	assert.Equal(t, ConflictOutcomeCreateFailed, resolution.Outcome)
}

func TestConflictResolutionRedetectWhileResolving(t *testing.T) {
	resolution := awaitingChoice(t)
	require.NoError(t, resolution.BeginReplace())

	other := candidateAppointment()
	other.ID = "raced-in"
	require.NoError(t, resolution.DetectConflict(other))
	assert.Equal(t, ConflictResolutionStateAwaitingChoice, resolution.State)
	assert.Equal(t, "raced-in", resolution.Conflict.ID)
}

func TestConflictResolutionChooseAnotherSlot(t *testing.T) {
	resolution := awaitingChoice(t)

	require.NoError(t, resolution.ChooseAnotherSlot())
	assert.Equal(t, ConflictResolutionStateIdle, resolution.State)
	assert.Nil(t, resolution.Candidate)
	assert.Nil(t, resolution.Conflict)
	assert.Equal(t, ConflictOutcomeSlotCleared, resolution.Outcome)

	// Без кандидата нельзя ни зафиксировать, ни снова найти конфликт
	assert.ErrorIs(t, resolution.Commit("a-1"), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.DetectConflict(candidateAppointment()), ErrInvalidTransition)
}

func TestConflictResolutionRescheduleLeavesStateUnchanged(t *testing.T) {
	resolution := awaitingChoice(t)
	conflict := resolution.Conflict

	err := resolution.RequestReschedule()
	assert.ErrorIs(t, err, ErrRescheduleNotAvailable)
	assert.Equal(t, ConflictResolutionStateAwaitingChoice, resolution.State)
	assert.Same(t, conflict, resolution.Conflict)
	assert.Equal(t, ConflictOutcomeNotYetAvailable, resolution.Outcome)
}

func TestConflictResolutionActionsRequireAwaitingChoice(t *testing.T) {
	resolution := NewConflictResolution("r-1", candidateAppointment())

	assert.ErrorIs(t, resolution.BeginReplace(), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.ChooseAnotherSlot(), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.RequestReschedule(), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.CancelFailed(), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.CreateFailed(), ErrInvalidTransition)
	assert.ErrorIs(t, resolution.Replaced("a-1"), ErrInvalidTransition)
	assert.Equal(t, ConflictResolutionStateIdle, resolution.State)
}

func TestConflictActionIsValid(t *testing.T) {
	assert.True(t, ConflictActionReplace.IsValid())
	assert.True(t, ConflictActionChooseAnotherSlot.IsValid())
	assert.True(t, ConflictActionReschedule.IsValid())
	assert.False(t, ConflictAction("delete").IsValid())
}
