package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport — обращение к хранилищу не удалось (сеть, таймаут, неожиданный ответ)
	ErrTransport = errors.New("record store request failed")

	// ErrSlotTaken — хранилище отклонило вторую подтвержденную запись на то же время
	ErrSlotTaken = errors.New("slot is already taken")

	// ErrSlotUnavailable — выбранное время отсутствует в актуальном списке свободных слотов
	ErrSlotUnavailable = errors.New("slot is not available")

	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")

	// ErrPartialFailure — отмена конфликтующей записи не удалась, новая запись не создана
	ErrPartialFailure = errors.New("conflict resolution did not complete")

	ErrRescheduleNotAvailable = errors.New("rescheduling the existing appointment is not yet available")
	ErrInvalidTransition      = errors.New("action is not allowed in the current resolution state")
	ErrResolutionNotFound     = errors.New("conflict resolution not found")
)

// ValidationError — обязательные поля запроса не заполнены, запрос в хранилище не отправлялся
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}
