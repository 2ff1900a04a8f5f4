package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

// MemoryAdapter — хранилище правил и записей в памяти процесса для локального окружения и тестов.
// Уникальность подтвержденных записей проверяется под мьютексом, как это делает удаленное хранилище.
type MemoryAdapter struct {
	mu           sync.RWMutex
	rules        []domain.ScheduleRule
	appointments []domain.Appointment
	logger       out.LoggerPort
}

func NewMemoryAdapter(logger out.LoggerPort) *MemoryAdapter {
	return &MemoryAdapter{
		rules:        make([]domain.ScheduleRule, 0),
		appointments: make([]domain.Appointment, 0),
		logger:       logger.WithModule("MemoryAdapter"),
	}
}

// PutScheduleRule добавляет правило или заменяет правило с тем же ID
func (m *MemoryAdapter) PutScheduleRule(rule domain.ScheduleRule) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	for i := range m.rules {
		if m.rules[i].ID == rule.ID {
			m.rules[i] = rule
			return
		}
	}
	m.rules = append(m.rules, rule)
}

func (m *MemoryAdapter) ListScheduleRules(ctx context.Context, providerID string) ([]domain.ScheduleRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rules := make([]domain.ScheduleRule, 0)
	for _, rule := range m.rules {
		if providerID == "" || rule.ProviderID == providerID {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (m *MemoryAdapter) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	appointments := make([]domain.Appointment, 0)
	for _, appointment := range m.appointments {
		if filter.Matches(appointment) {
			appointments = append(appointments, appointment)
		}
	}
	return appointments, nil
}

func (m *MemoryAdapter) CreateAppointment(ctx context.Context, appointment domain.Appointment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if appointment.Status != domain.AppointmentStatusRequested && appointment.Status != domain.AppointmentStatusConfirmed {
		return "", fmt.Errorf("%w: cannot create appointment as %q", domain.ErrInvalidStatusTransition, appointment.Status)
	}

	if appointment.IsConfirmed() {
		if taken := m.findConfirmed(appointment, ""); taken != nil {
			m.logger.Warn("memory.appointment.create.slot_taken", out.LogFields{
				"providerId": appointment.ProviderID,
				"date":       appointment.Date,
				"startTime":  appointment.StartTime,
				"takenBy":    taken.ID,
			})
			return "", domain.ErrSlotTaken
		}
	}

	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	for _, existing := range m.appointments {
		if existing.ID == appointment.ID {
			return "", fmt.Errorf("appointment %s already exists", appointment.ID)
		}
	}

	m.appointments = append(m.appointments, appointment)

	m.logger.Debug("memory.appointment.created", out.LogFields{
		"appointmentId": appointment.ID,
		"status":        appointment.Status,
	})
	return appointment.ID, nil
}

func (m *MemoryAdapter) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.appointments {
		appointment := &m.appointments[i]
		if appointment.ID != appointmentID {
			continue
		}

		if !appointment.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, appointment.Status, status)
		}

		if status == domain.AppointmentStatusConfirmed && m.findConfirmed(*appointment, appointment.ID) != nil {
			return domain.ErrSlotTaken
		}

		appointment.Status = status

		m.logger.Debug("memory.appointment.status_updated", out.LogFields{
			"appointmentId": appointmentID,
			"status":        status,
		})
		return nil
	}

	return domain.ErrAppointmentNotFound
}

// findConfirmed вызывается под блокировкой
func (m *MemoryAdapter) findConfirmed(appointment domain.Appointment, exceptID string) *domain.Appointment {
	for i := range m.appointments {
		existing := &m.appointments[i]
		if existing.ID != exceptID && existing.OccupiesStart(appointment.ProviderID, appointment.Date, appointment.StartTime) {
			return existing
		}
	}
	return nil
}
