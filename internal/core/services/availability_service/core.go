package availability_service

import (
	"context"
	"fmt"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type AvailabilityService struct {
	schedulePort    out.SchedulePort
	appointmentPort out.AppointmentPort
	logger          out.LoggerPort
	location        *time.Location
	now             func() time.Time
}

func NewAvailabilityService(
	schedulePort out.SchedulePort,
	appointmentPort out.AppointmentPort,
	location *time.Location,
	logger out.LoggerPort,
) *AvailabilityService {
	if location == nil {
		location = time.UTC
	}

	return &AvailabilityService{
		schedulePort:    schedulePort,
		appointmentPort: appointmentPort,
		logger:          logger.WithModule("AvailabilityService"),
		location:        location,
		now:             time.Now,
	}
}

// WithClock подменяет источник текущего времени
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	s.now = now
	return s
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, query in.AvailabilityQuery) (*in.AvailabilityResult, error) {
	if fields := validateQuery(query); len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	debugInfo := AvailabilityServiceDebug{}

	s.logger.Info("availability.resolve.started", out.LogFields{
		"providerId": query.ProviderID,
		"date":       query.Date,
		"duration":   query.DurationMinutes,
	})

	var rules []domain.ScheduleRule
	err := debugInfo.track("availability.schedule_rules.fetch", func() error {
		var err error
		rules, err = s.schedulePort.ListScheduleRules(ctx, query.ProviderID)
		return err
	})
	if err != nil {
		s.logger.Error("availability.schedule_rules.fetch_failed", out.LogFields{
			"providerId": query.ProviderID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("availability.schedule_rules.fetch_failed: %w", err)
	}

	result := &in.AvailabilityResult{
		ProviderID: query.ProviderID,
		Date:       query.Date,
		Available:  make([]json_types.TimeOfDay, 0),
		Slots:      make([]domain.Slot, 0),
	}

	var window *domain.Window
	_ = debugInfo.track("availability.window.resolve", func() error {
		window = ResolveWindow(rules, query.ProviderID, query.Date, s.logger)
		return nil
	})

	// Нет применимого правила — это не ошибка, просто пустой список слотов
	if window == nil {
		s.logger.Info("availability.resolve.not_working", out.LogFields{
			"providerId": query.ProviderID,
			"date":       query.Date,
		})
		result.Debug = debugInfo.Data()
		return result, nil
	}
	result.Working = true

	var candidates []json_types.TimeOfDay
	_ = debugInfo.track("availability.slots.generate", func() error {
		candidates = GenerateSlots(window, query.DurationMinutes)
		return nil
	})

	var appointments []domain.Appointment
	err = debugInfo.track("availability.appointments.fetch", func() error {
		var err error
		appointments, err = s.appointmentPort.ListAppointments(ctx, domain.ForDay(query.ProviderID, query.Date))
		return err
	})
	if err != nil {
		s.logger.Error("availability.appointments.fetch_failed", out.LogFields{
			"providerId": query.ProviderID,
			"date":       query.Date,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("availability.appointments.fetch_failed: %w", err)
	}

	_ = debugInfo.track("availability.slots.filter", func() error {
		result.Available = FilterAvailable(candidates, query.ProviderID, query.Date, appointments, s.now().In(s.location))
		result.Slots = tagSlots(candidates, result.Available, query.DurationMinutes)
		return nil
	})
	result.Debug = debugInfo.Data()

	s.logger.Debug("availability.resolve.finished", out.LogFields{
		"providerId":     query.ProviderID,
		"date":           query.Date,
		"window":         fmt.Sprintf("%s-%s", window.Start, window.End),
		"candidateCount": len(candidates),
		"availableCount": len(result.Available),
	})

	return result, nil
}

// IsAvailable — проверка конкретного времени по свежему расчету доступности
func (s *AvailabilityService) IsAvailable(ctx context.Context, query in.AvailabilityQuery, start json_types.TimeOfDay) (bool, error) {
	result, err := s.GetAvailability(ctx, query)
	if err != nil {
		return false, err
	}

	for _, slot := range result.Available {
		if slot.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func validateQuery(query in.AvailabilityQuery) []string {
	fields := make([]string, 0)
	if query.ProviderID == "" {
		fields = append(fields, "provider")
	}
	if query.Date.IsZero() {
		fields = append(fields, "date")
	}
	if query.DurationMinutes <= 0 || query.DurationMinutes > domain.MaxDurationMinutes {
		fields = append(fields, "duration")
	}
	return fields
}
