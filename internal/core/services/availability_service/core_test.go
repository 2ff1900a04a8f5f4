package availability_service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
)

func newService(schedule *mockSchedulePort, appointments *mockAppointmentPort, now time.Time) *AvailabilityService {
	return NewAvailabilityService(schedule, appointments, time.UTC, nopLogger).
		WithClock(func() time.Time { return now })
}

func TestGetAvailability(t *testing.T) {
	ctx := context.Background()
	schedule := &mockSchedulePort{}
	appointments := &mockAppointmentPort{}

	schedule.On("ListScheduleRules", ctx, provider).
		Return([]domain.ScheduleRule{weekly(domain.ScheduleRuleDaysOfWeekMon, "09:00", "13:00")}, nil)
	appointments.On("ListAppointments", ctx, domain.ForDay(provider, monday)).
		Return([]domain.Appointment{confirmedAt("10:00")}, nil)

	service := newService(schedule, appointments, yesterdayEvening)
	result, err := service.GetAvailability(ctx, in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: 30})
	require.NoError(t, err)

	assert.True(t, result.Working)
	assert.Equal(t, times("09:00", "09:30", "10:30", "11:00", "11:30", "12:00", "12:30"), result.Available)
	require.Len(t, result.Slots, 8)
	assert.False(t, result.Slots[2].Available)
	assert.Equal(t, tod("10:30"), result.Slots[2].End)

	events := make([]string, 0, len(result.Debug))
	for _, info := range result.Debug {
		events = append(events, info.Event)
	}
	assert.Equal(t, []string{
		"availability.schedule_rules.fetch",
		"availability.window.resolve",
		"availability.slots.generate",
		"availability.appointments.fetch",
		"availability.slots.filter",
	}, events)

	schedule.AssertExpectations(t)
	appointments.AssertExpectations(t)
}

func TestGetAvailabilityNotWorkingSkipsAppointments(t *testing.T) {
	ctx := context.Background()
	schedule := &mockSchedulePort{}
	appointments := &mockAppointmentPort{}

	schedule.On("ListScheduleRules", ctx, provider).Return([]domain.ScheduleRule{
		weekly(domain.ScheduleRuleDaysOfWeekMon, "09:00", "13:00"),
		override("vac", monday, domain.ScheduleRuleKindVacation, "", ""),
	}, nil)

	result, err := newService(schedule, appointments, yesterdayEvening).
		GetAvailability(ctx, in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: 30})
	require.NoError(t, err)

	assert.False(t, result.Working)
	assert.Empty(t, result.Available)
	assert.Empty(t, result.Slots)
	appointments.AssertNotCalled(t, "ListAppointments", mock.Anything, mock.Anything)
}

func TestGetAvailabilityUsesConfiguredTimeZone(t *testing.T) {
	ctx := context.Background()
	schedule := &mockSchedulePort{}
	appointments := &mockAppointmentPort{}
	schedule.On("ListScheduleRules", ctx, provider).
		Return([]domain.ScheduleRule{weekly(domain.ScheduleRuleDaysOfWeekMon, "09:00", "11:00")}, nil)
	appointments.On("ListAppointments", ctx, mock.Anything).Return([]domain.Appointment{}, nil)

	// 06:45 UTC = 09:45 в UTC+3, сегодня в расписании уже прошли 09:00 и 09:30
	now := time.Date(2024, 6, 10, 6, 45, 0, 0, time.UTC)
	service := NewAvailabilityService(schedule, appointments, time.FixedZone("UTC+3", 3*60*60), nopLogger).
		WithClock(func() time.Time { return now })

	result, err := service.GetAvailability(ctx, in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: 30})
	require.NoError(t, err)
	assert.Equal(t, times("10:00", "10:30"), result.Available)
}

func TestGetAvailabilityValidation(t *testing.T) {
	service := newService(&mockSchedulePort{}, &mockAppointmentPort{}, yesterdayEvening)

	_, err := service.GetAvailability(context.Background(), in.AvailabilityQuery{})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"provider", "date", "duration"}, validationErr.Fields)
}

func TestGetAvailabilityRejectsDurationLongerThanDay(t *testing.T) {
	schedule := &mockSchedulePort{}
	appointments := &mockAppointmentPort{}
	service := newService(schedule, appointments, yesterdayEvening)

	for _, duration := range []int{1441, math.MaxInt} {
		_, err := service.GetAvailability(context.Background(), in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: duration})

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, []string{"duration"}, validationErr.Fields)
	}

	schedule.AssertNotCalled(t, "ListScheduleRules", mock.Anything, mock.Anything)
	appointments.AssertNotCalled(t, "ListAppointments", mock.Anything, mock.Anything)
}

func TestGetAvailabilityPropagatesTransportErrors(t *testing.T) {
	ctx := context.Background()
	query := in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: 30}

	t.Run("schedule rules", func(t *testing.T) {
		schedule := &mockSchedulePort{}
		schedule.On("ListScheduleRules", ctx, provider).Return(nil, domain.ErrTransport)

		_, err := newService(schedule, &mockAppointmentPort{}, yesterdayEvening).GetAvailability(ctx, query)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("appointments", func(t *testing.T) {
		schedule := &mockSchedulePort{}
		appointments := &mockAppointmentPort{}
		schedule.On("ListScheduleRules", ctx, provider).
			Return([]domain.ScheduleRule{weekly(domain.ScheduleRuleDaysOfWeekMon, "09:00", "13:00")}, nil)
		appointments.On("ListAppointments", ctx, mock.Anything).
			Return(nil, errors.Join(domain.ErrTransport, errors.New("timeout")))

		_, err := newService(schedule, appointments, yesterdayEvening).GetAvailability(ctx, query)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	schedule := &mockSchedulePort{}
	appointments := &mockAppointmentPort{}
	schedule.On("ListScheduleRules", ctx, provider).
		Return([]domain.ScheduleRule{weekly(domain.ScheduleRuleDaysOfWeekMon, "09:00", "10:00")}, nil)
	appointments.On("ListAppointments", ctx, mock.Anything).
		Return([]domain.Appointment{confirmedAt("09:00")}, nil)

	service := newService(schedule, appointments, yesterdayEvening)
	query := in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: 45}

	ok, err := service.IsAvailable(ctx, query, tod("09:00"))
	require.NoError(t, err)
	assert.False(t, ok)

	query.DurationMinutes = 30
	ok, err = service.IsAvailable(ctx, query, tod("09:30"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.IsAvailable(ctx, query, tod("09:15"))
	require.NoError(t, err)
	assert.False(t, ok)
}
