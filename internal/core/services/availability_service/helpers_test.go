package availability_service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

const provider = "dr-smith"

// 2024-06-10 — понедельник
var monday = json_types.MustDate("2024-06-10")

var nopLogger = logger.NewNopLogger()

type mockSchedulePort struct {
	mock.Mock
}

func (m *mockSchedulePort) ListScheduleRules(ctx context.Context, providerID string) ([]domain.ScheduleRule, error) {
	args := m.Called(ctx, providerID)
	rules, _ := args.Get(0).([]domain.ScheduleRule)
	return rules, args.Error(1)
}

type mockAppointmentPort struct {
	mock.Mock
}

func (m *mockAppointmentPort) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	args := m.Called(ctx, filter)
	appointments, _ := args.Get(0).([]domain.Appointment)
	return appointments, args.Error(1)
}

func (m *mockAppointmentPort) CreateAppointment(ctx context.Context, appointment domain.Appointment) (string, error) {
	args := m.Called(ctx, appointment)
	return args.String(0), args.Error(1)
}

func (m *mockAppointmentPort) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error {
	args := m.Called(ctx, appointmentID, status)
	return args.Error(0)
}

func tod(str string) json_types.TimeOfDay {
	return json_types.MustTimeOfDay(str)
}

func times(strs ...string) []json_types.TimeOfDay {
	result := make([]json_types.TimeOfDay, 0, len(strs))
	for _, str := range strs {
		result = append(result, tod(str))
	}
	return result
}

func weekly(day domain.ScheduleRuleDaysOfWeek, start, end string) domain.ScheduleRule {
	return domain.ScheduleRule{
		ID:         "weekly-" + string(day),
		ProviderID: provider,
		Scope:      domain.ScheduleRuleScope{DayOfWeek: day},
		Kind:       domain.ScheduleRuleKindNormal,
		Window:     domain.Window{Start: tod(start), End: tod(end)},
		Active:     true,
	}
}

func override(id string, date json_types.Date, kind domain.ScheduleRuleKind, start, end string) domain.ScheduleRule {
	rule := domain.ScheduleRule{
		ID:         id,
		ProviderID: provider,
		Scope:      domain.ScheduleRuleScope{Date: &date},
		Kind:       kind,
		Active:     true,
	}
	if start != "" {
		rule.Window = domain.Window{Start: tod(start), End: tod(end)}
	}
	return rule
}

func confirmedAt(start string) domain.Appointment {
	return domain.Appointment{
		ID:         "appt-" + start,
		ProviderID: provider,
		Date:       monday,
		StartTime:  tod(start),
		EndTime:    tod(start).AddMinutes(30),
		Status:     domain.AppointmentStatusConfirmed,
	}
}
