package booking_service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
)

func TestBookCreatesRequestedAppointment(t *testing.T) {
	ctx := context.Background()
	port := &mockAppointmentPort{}
	availability := &mockAvailability{}

	availability.On("IsAvailable", ctx, in.AvailabilityQuery{ProviderID: provider, Date: monday, DurationMinutes: 30}, ten).
		Return(true, nil)
	port.On("CreateAppointment", ctx, mock.MatchedBy(func(a domain.Appointment) bool {
		return a.Status == domain.AppointmentStatusRequested &&
			a.EndTime.Equal(ten.AddMinutes(30)) &&
			a.Customer.Name == "Ann Lee" &&
			a.Price.String() == "49.9"
	})).Return("a-1", nil)

	appointment, err := newTestService(port, availability).Book(ctx, bookingRequest())
	require.NoError(t, err)

	assert.Equal(t, "a-1", appointment.ID)
	assert.Equal(t, domain.AppointmentStatusRequested, appointment.Status)
	port.AssertExpectations(t)
	availability.AssertExpectations(t)
}

func TestBookConfirmedStatus(t *testing.T) {
	port := &mockAppointmentPort{}
	availability := &mockAvailability{}
	availability.On("IsAvailable", anyCtx, mock.Anything, ten).Return(true, nil)
	port.On("CreateAppointment", anyCtx, mock.MatchedBy(func(a domain.Appointment) bool {
		return a.IsConfirmed()
	})).Return("a-1", nil)

	req := bookingRequest()
	req.Status = domain.AppointmentStatusConfirmed

	appointment, err := newTestService(port, availability).Book(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, appointment.IsConfirmed())
}

func TestBookRejectsUnavailableSlot(t *testing.T) {
	port := &mockAppointmentPort{}
	availability := &mockAvailability{}
	availability.On("IsAvailable", anyCtx, mock.Anything, ten).Return(false, nil)

	_, err := newTestService(port, availability).Book(context.Background(), bookingRequest())

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	port.AssertNotCalled(t, "CreateAppointment", mock.Anything, mock.Anything)
}

func TestBookSlotTakenOnWrite(t *testing.T) {
	port := &mockAppointmentPort{}
	availability := &mockAvailability{}
	availability.On("IsAvailable", anyCtx, mock.Anything, ten).Return(true, nil)
	port.On("CreateAppointment", anyCtx, anyAppt).Return("", domain.ErrSlotTaken)

	_, err := newTestService(port, availability).Book(context.Background(), bookingRequest())

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
}

func TestBookValidationHappensBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *in.BookingRequest)
		field  string
	}{
		{name: "provider", mutate: func(req *in.BookingRequest) { req.ProviderID = "" }, field: "provider"},
		{name: "date", mutate: func(req *in.BookingRequest) { req.Date = nil }, field: "date"},
		{name: "start", mutate: func(req *in.BookingRequest) { req.StartTime = nil }, field: "startTime"},
		{name: "duration", mutate: func(req *in.BookingRequest) { req.DurationMinutes = 0 }, field: "duration"},
		{name: "duration over a day", mutate: func(req *in.BookingRequest) { req.DurationMinutes = 1441 }, field: "duration"},
		{name: "ends after midnight", mutate: func(req *in.BookingRequest) {
			start := json_types.MustTimeOfDay("23:30")
			req.StartTime = &start
			req.DurationMinutes = 60
		}, field: "duration"},
		{name: "start at midnight", mutate: func(req *in.BookingRequest) {
			start := json_types.MustTimeOfDay("24:00")
			req.StartTime = &start
		}, field: "startTime"},
		{name: "customer", mutate: func(req *in.BookingRequest) { req.Customer.Name = "" }, field: "customer.name"},
		{name: "status", mutate: func(req *in.BookingRequest) { req.Status = domain.AppointmentStatusCompleted }, field: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := &mockAppointmentPort{}
			availability := &mockAvailability{}
			req := bookingRequest()
			tt.mutate(&req)

			_, err := newTestService(port, availability).Book(context.Background(), req)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, []string{tt.field}, validationErr.Fields)
			availability.AssertNotCalled(t, "IsAvailable", mock.Anything, mock.Anything, mock.Anything)
			port.AssertNotCalled(t, "CreateAppointment", mock.Anything, mock.Anything)
		})
	}
}

func TestFindConflict(t *testing.T) {
	ctx := context.Background()
	requested := existingConfirmed()
	requested.ID = "requested"
	requested.Status = domain.AppointmentStatusRequested

	port := &mockAppointmentPort{}
	port.On("ListAppointments", ctx, forDay).Return([]domain.Appointment{requested, existingConfirmed()}, nil)
	service := newTestService(port, nil)

	conflict, err := service.FindConflict(ctx, provider, monday, ten)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "existing", conflict.ID)

	conflict, err = service.FindConflict(ctx, provider, monday, ten.AddMinutes(30))
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	port := &mockAppointmentPort{}
	port.On("UpdateAppointmentStatus", ctx, "a-1", domain.AppointmentStatusConfirmed).Return(nil)
	port.On("UpdateAppointmentStatus", ctx, "missing", domain.AppointmentStatusCancelled).Return(domain.ErrAppointmentNotFound)
	service := newTestService(port, nil)

	require.NoError(t, service.UpdateStatus(ctx, "a-1", domain.AppointmentStatusConfirmed))
	assert.ErrorIs(t, service.UpdateStatus(ctx, "missing", domain.AppointmentStatusCancelled), domain.ErrAppointmentNotFound)

	var validationErr *domain.ValidationError
	require.ErrorAs(t, service.UpdateStatus(ctx, "", "archived"), &validationErr)
	assert.Equal(t, []string{"appointmentId", "status"}, validationErr.Fields)
}
