package booking_service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

// AvailabilityChecker — свежий расчет доступности конкретного времени
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, query in.AvailabilityQuery, start json_types.TimeOfDay) (bool, error)
}

type BookingService struct {
	appointmentPort out.AppointmentPort
	availability    AvailabilityChecker
	validate        *validator.Validate
	logger          out.LoggerPort
}

func NewBookingService(
	appointmentPort out.AppointmentPort,
	availability AvailabilityChecker,
	logger out.LoggerPort,
) *BookingService {
	return &BookingService{
		appointmentPort: appointmentPort,
		availability:    availability,
		validate:        newValidator(),
		logger:          logger.WithModule("BookingService"),
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// В ошибках используем имена полей из json
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

var endOfDay = json_types.MustTimeOfDay("24:00")

func (s *BookingService) validateRequest(req in.BookingRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return validateBounds(req)
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &domain.ValidationError{Fields: []string{err.Error()}}
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		// Namespace вида "BookingRequest.customer.name", корневой тип отбрасываем
		namespace := fieldErr.Namespace()
		if idx := strings.Index(namespace, "."); idx >= 0 {
			namespace = namespace[idx+1:]
		}
		fields = append(fields, namespace)
	}
	return &domain.ValidationError{Fields: fields}
}

// validateBounds — запись должна начинаться и заканчиваться в пределах суток,
// иначе конец записи не сериализуется в хранилище
func validateBounds(req in.BookingRequest) error {
	if !req.StartTime.Before(endOfDay) {
		return &domain.ValidationError{Fields: []string{"startTime"}}
	}
	if req.StartTime.AddMinutes(req.DurationMinutes).After(endOfDay) {
		return &domain.ValidationError{Fields: []string{"duration"}}
	}
	return nil
}

func toAppointment(req in.BookingRequest, status domain.AppointmentStatus) domain.Appointment {
	return domain.Appointment{
		ProviderID: req.ProviderID,
		Date:       *req.Date,
		StartTime:  *req.StartTime,
		EndTime:    req.StartTime.AddMinutes(req.DurationMinutes),
		Status:     status,
		Customer:   req.Customer,
		ServiceID:  req.ServiceID,
		Price:      req.Price,
	}
}

func (s *BookingService) FindConflict(ctx context.Context, providerID string, date json_types.Date, start json_types.TimeOfDay) (*domain.Appointment, error) {
	appointments, err := s.appointmentPort.ListAppointments(ctx, domain.ForDay(providerID, date))
	if err != nil {
		s.logger.Error("booking.conflict.fetch_failed", out.LogFields{
			"providerId": providerID,
			"date":       date,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("booking.conflict.fetch_failed: %w", err)
	}

	for _, appointment := range appointments {
		if appointment.OccupiesStart(providerID, date, start) {
			conflict := appointment
			return &conflict, nil
		}
	}

	return nil, nil
}

func (s *BookingService) Book(ctx context.Context, req in.BookingRequest) (*domain.Appointment, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.AppointmentStatusRequested
	}

	available, err := s.availability.IsAvailable(ctx, in.AvailabilityQuery{
		ProviderID:      req.ProviderID,
		Date:            *req.Date,
		DurationMinutes: req.DurationMinutes,
	}, *req.StartTime)
	if err != nil {
		return nil, err
	}
	if !available {
		s.logger.Info("booking.book.slot_unavailable", out.LogFields{
			"providerId": req.ProviderID,
			"date":       req.Date,
			"startTime":  req.StartTime,
		})
		return nil, domain.ErrSlotUnavailable
	}

	appointment := toAppointment(req, status)
	id, err := s.appointmentPort.CreateAppointment(ctx, appointment)
	if err != nil {
		// Слот заняли между расчетом доступности и созданием записи
		if errors.Is(err, domain.ErrSlotTaken) {
			return nil, fmt.Errorf("%w: %w", domain.ErrSlotUnavailable, err)
		}
		s.logger.Error("booking.book.create_failed", out.LogFields{
			"providerId": req.ProviderID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("booking.book.create_failed: %w", err)
	}
	appointment.ID = id

	s.logger.Info("booking.book.created", out.LogFields{
		"appointmentId": id,
		"providerId":    appointment.ProviderID,
		"date":          appointment.Date,
		"startTime":     appointment.StartTime,
		"status":        appointment.Status,
	})

	return &appointment, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error {
	fields := make([]string, 0)
	if appointmentID == "" {
		fields = append(fields, "appointmentId")
	}
	if !status.IsValid() {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}

	if err := s.appointmentPort.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		s.logger.Error("booking.status.update_failed", out.LogFields{
			"appointmentId": appointmentID,
			"status":        status,
			"error":         err.Error(),
		})
		return fmt.Errorf("booking.status.update_failed: %w", err)
	}

	s.logger.Info("booking.status.updated", out.LogFields{
		"appointmentId": appointmentID,
		"status":        status,
	})
	return nil
}

func newResolutionID() string {
	return uuid.NewString()
}
