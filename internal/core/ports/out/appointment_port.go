package out

import (
	"context"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// AppointmentPort — удаленное хранилище записей.
// Хранилище обязано отклонять вторую подтвержденную запись на те же
// (сотрудник, дата, время начала) ошибкой domain.ErrSlotTaken.
type AppointmentPort interface {
	ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	CreateAppointment(ctx context.Context, appointment domain.Appointment) (string, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error
}
