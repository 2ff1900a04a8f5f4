package in

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

// BookingRequest — указатели позволяют отличить незаполненное поле от 00:00
type BookingRequest struct {
	ProviderID      string                   `json:"provider" validate:"required"`
	Date            *json_types.Date         `json:"date" validate:"required"`
	StartTime       *json_types.TimeOfDay    `json:"startTime" validate:"required"`
	DurationMinutes int                      `json:"duration" validate:"required,gt=0,lte=1440"`
	Customer        domain.Customer          `json:"customer"`
	ServiceID       string                   `json:"serviceId"`
	Price           decimal.Decimal          `json:"price"`
	Status          domain.AppointmentStatus `json:"status" validate:"omitempty,oneof=requested confirmed"`
}

type BookingUseCase interface {
	// Book — запись клиента по актуальной доступности
	Book(ctx context.Context, req BookingRequest) (*domain.Appointment, error)

	// InsertAppointment — ручная вставка сотрудником, конфликт возвращается как состояние автомата
	InsertAppointment(ctx context.Context, req BookingRequest) (*domain.ConflictResolution, error)

	// Resolve применяет действие оператора к ожидающему выбора конфликту
	Resolve(ctx context.Context, resolution *domain.ConflictResolution, action domain.ConflictAction) error

	FindConflict(ctx context.Context, providerID string, date json_types.Date, start json_types.TimeOfDay) (*domain.Appointment, error)

	UpdateStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error
}
