package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

func TestAppointmentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		allowed  bool
	}{
		{AppointmentStatusRequested, AppointmentStatusConfirmed, true},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusRequested, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, true},
		{AppointmentStatusRequested, AppointmentStatusCompleted, false},
		{AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{AppointmentStatusCancelled, AppointmentStatusCancelled, false},
		{AppointmentStatusCompleted, AppointmentStatusConfirmed, false},
		{AppointmentStatusConfirmed, AppointmentStatusRequested, false},
		{AppointmentStatusConfirmed, "archived", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOccupiesStart(t *testing.T) {
	date := json_types.MustDate("2024-06-10")
	start := json_types.MustTimeOfDay("10:00")
	appointment := Appointment{
		ProviderID: "dr-smith",
		Date:       date,
		StartTime:  start,
		Status:     AppointmentStatusConfirmed,
	}

	assert.True(t, appointment.OccupiesStart("dr-smith", date, start))
	assert.False(t, appointment.OccupiesStart("dr-jones", date, start))
	assert.False(t, appointment.OccupiesStart("dr-smith", date.AddDays(1), start))
	assert.False(t, appointment.OccupiesStart("dr-smith", date, start.AddMinutes(30)))

	// Только подтвержденные записи занимают время
	for _, status := range []AppointmentStatus{AppointmentStatusRequested, AppointmentStatusCompleted, AppointmentStatusCancelled} {
		appointment.Status = status
		assert.False(t, appointment.OccupiesStart("dr-smith", date, start), status)
	}
}

func TestAppointmentFilter(t *testing.T) {
	date := json_types.MustDate("2024-06-10")
	filter := ForDay("dr-smith", date)

	assert.True(t, filter.Matches(Appointment{ProviderID: "dr-smith", Date: date}))
	assert.False(t, filter.Matches(Appointment{ProviderID: "dr-smith", Date: date.AddDays(1)}))
	assert.False(t, filter.Matches(Appointment{ProviderID: "dr-smith", Date: date.AddDays(-1)}))
	assert.False(t, filter.Matches(Appointment{ProviderID: "dr-jones", Date: date}))
	assert.True(t, AppointmentFilter{}.Matches(Appointment{ProviderID: "dr-jones", Date: date}))
}
