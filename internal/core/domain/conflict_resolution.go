package domain

import "fmt"

type ConflictResolutionState string

const (
	ConflictResolutionStateIdle           ConflictResolutionState = "idle"
	ConflictResolutionStateAwaitingChoice ConflictResolutionState = "awaiting_choice"
	ConflictResolutionStateResolving      ConflictResolutionState = "resolving"
	ConflictResolutionStateResolved       ConflictResolutionState = "resolved"
)

type ConflictAction string

const (
	ConflictActionReplace           ConflictAction = "replace"
	ConflictActionChooseAnotherSlot ConflictAction = "choose_another_slot"
	ConflictActionReschedule        ConflictAction = "reschedule"
)

func (a ConflictAction) IsValid() bool {
	switch a {
	case ConflictActionReplace, ConflictActionChooseAnotherSlot, ConflictActionReschedule:
		return true
	}
	return false
}

// ConflictOutcome — результат последнего перехода, показывается оператору
type ConflictOutcome string

const (
	ConflictOutcomeNone            ConflictOutcome = ""
	ConflictOutcomeConflict        ConflictOutcome = "conflict"
	ConflictOutcomeCommitted       ConflictOutcome = "committed"
	ConflictOutcomeReplaced        ConflictOutcome = "replaced"
	ConflictOutcomePartialFailure  ConflictOutcome = "partial_failure"
	ConflictOutcomeCreateFailed    ConflictOutcome = "create_failed"
	ConflictOutcomeSlotCleared     ConflictOutcome = "slot_cleared"
	ConflictOutcomeNotYetAvailable ConflictOutcome = "not_yet_available"
)

// ConflictResolution — конечный автомат ручной вставки записи в занятый слот.
// Переходы не обращаются к хранилищу, их вызывает сервис по результатам запросов.
type ConflictResolution struct {
	ID        string                  `json:"id"`
	State     ConflictResolutionState `json:"state"`
	Candidate *Appointment            `json:"candidate,omitempty"`
	Conflict  *Appointment            `json:"conflict,omitempty"`
	Outcome   ConflictOutcome         `json:"outcome,omitempty"`
	// ID созданной записи, заполняется только в состоянии resolved
	AppointmentID string `json:"appointmentId,omitempty"`
}

func NewConflictResolution(id string, candidate Appointment) *ConflictResolution {
	return &ConflictResolution{
		ID:        id,
		State:     ConflictResolutionStateIdle,
		Candidate: &candidate,
	}
}

func (r *ConflictResolution) transitionError(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, r.State)
}

// DetectConflict: idle|resolving -> awaiting_choice
func (r *ConflictResolution) DetectConflict(conflict Appointment) error {
	if r.Candidate == nil || (r.State != ConflictResolutionStateIdle && r.State != ConflictResolutionStateResolving) {
		return r.transitionError("detect conflict")
	}

	r.State = ConflictResolutionStateAwaitingChoice
	r.Conflict = &conflict
	r.Outcome = ConflictOutcomeConflict
	return nil
}

// Commit — прямое создание без конфликта: idle -> resolved
func (r *ConflictResolution) Commit(appointmentID string) error {
	if r.Candidate == nil || r.State != ConflictResolutionStateIdle {
		return r.transitionError("commit")
	}

	r.State = ConflictResolutionStateResolved
	r.AppointmentID = appointmentID
	r.Outcome = ConflictOutcomeCommitted
	return nil
}

// BeginReplace: awaiting_choice -> resolving
func (r *ConflictResolution) BeginReplace() error {
	if r.State != ConflictResolutionStateAwaitingChoice {
		return r.transitionError(string(ConflictActionReplace))
	}

	r.State = ConflictResolutionStateResolving
	r.Outcome = ConflictOutcomeNone
	return nil
}

// CancelFailed — старая запись не отменена, новая не создается: resolving -> awaiting_choice
func (r *ConflictResolution) CancelFailed() error {
	if r.State != ConflictResolutionStateResolving {
		return r.transitionError("cancel failed")
	}

	r.State = ConflictResolutionStateAwaitingChoice
	r.Outcome = ConflictOutcomePartialFailure
	return nil
}

// Replaced: resolving -> resolved
func (r *ConflictResolution) Replaced(appointmentID string) error {
	if r.State != ConflictResolutionStateResolving {
		return r.transitionError("replaced")
	}

	r.State = ConflictResolutionStateResolved
	r.AppointmentID = appointmentID
	r.Outcome = ConflictOutcomeReplaced
	return nil
}

// CreateFailed — старая запись уже отменена, конфликта больше нет: resolving -> idle.
// Кандидат сохраняется, оператор может повторить вставку после обновления слотов.
func (r *ConflictResolution) CreateFailed() error {
	if r.State != ConflictResolutionStateResolving {
		return r.transitionError("create failed")
	}

	r.State = ConflictResolutionStateIdle
	r.Conflict = nil
	r.Outcome = ConflictOutcomeCreateFailed
	return nil
}

// ChooseAnotherSlot: awaiting_choice -> idle, выбор и конфликт сбрасываются
func (r *ConflictResolution) ChooseAnotherSlot() error {
	if r.State != ConflictResolutionStateAwaitingChoice {
		return r.transitionError(string(ConflictActionChooseAnotherSlot))
	}

	r.State = ConflictResolutionStateIdle
	r.Candidate = nil
	r.Conflict = nil
	r.Outcome = ConflictOutcomeSlotCleared
	return nil
}

// RequestReschedule пока не реализован: состояние не меняется, вызывающий получает ошибку
func (r *ConflictResolution) RequestReschedule() error {
	if r.State != ConflictResolutionStateAwaitingChoice {
		return r.transitionError(string(ConflictActionReschedule))
	}

	r.Outcome = ConflictOutcomeNotYetAvailable
	return ErrRescheduleNotAvailable
}

func (r *ConflictResolution) IsResolved() bool {
	return r.State == ConflictResolutionStateResolved
}
