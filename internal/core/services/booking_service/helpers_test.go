package booking_service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
)

const provider = "dr-smith"

var (
	monday  = json_types.MustDate("2024-06-10")
	ten     = json_types.MustTimeOfDay("10:00")
	forDay  = domain.ForDay(provider, monday)
	nopLog  = logger.NewNopLogger()
	anyCtx  = mock.Anything
	anyAppt = mock.AnythingOfType("domain.Appointment")
)

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

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) IsAvailable(ctx context.Context, query in.AvailabilityQuery, start json_types.TimeOfDay) (bool, error) {
	args := m.Called(ctx, query, start)
	return args.Bool(0), args.Error(1)
}

func bookingRequest() in.BookingRequest {
	date := monday
	start := ten
	return in.BookingRequest{
		ProviderID:      provider,
		Date:            &date,
		StartTime:       &start,
		DurationMinutes: 30,
		Customer:        domain.Customer{Name: "Ann Lee", Contact: "+100000"},
		ServiceID:       "consultation",
		Price:           decimal.RequireFromString("49.90"),
	}
}

func existingConfirmed() domain.Appointment {
	return domain.Appointment{
		ID:         "existing",
		ProviderID: provider,
		Date:       monday,
		StartTime:  ten,
		EndTime:    ten.AddMinutes(30),
		Status:     domain.AppointmentStatusConfirmed,
		Customer:   domain.Customer{Name: "Bob"},
	}
}

func newTestService(port *mockAppointmentPort, availability *mockAvailability) *BookingService {
	if availability == nil {
		availability = &mockAvailability{}
	}
	return NewBookingService(port, availability, nopLog)
}
