package booking_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

// InsertAppointment — ручная вставка записи сотрудником, живая фильтрация доступности не применяется.
// Конфликт не ошибка: возвращается автомат в состоянии awaiting_choice.
func (s *BookingService) InsertAppointment(ctx context.Context, req in.BookingRequest) (*domain.ConflictResolution, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	resolution := domain.NewConflictResolution(newResolutionID(), toAppointment(req, domain.AppointmentStatusConfirmed))
	logger := s.logger.WithFields(out.LogFields{"resolutionId": resolution.ID})

	conflict, err := s.FindConflict(ctx, req.ProviderID, *req.Date, *req.StartTime)
	if err != nil {
		return nil, err
	}

	if conflict != nil {
		logger.Info("booking.insert.conflict_detected", out.LogFields{
			"conflictId": conflict.ID,
			"providerId": conflict.ProviderID,
			"date":       conflict.Date,
			"startTime":  conflict.StartTime,
		})
		if err := resolution.DetectConflict(*conflict); err != nil {
			return nil, err
		}
		return resolution, nil
	}

	id, err := s.appointmentPort.CreateAppointment(ctx, *resolution.Candidate)
	if err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			if err := s.reenterConflict(ctx, resolution, err); err != nil {
				return nil, err
			}
			return resolution, nil
		}
		logger.Error("booking.insert.create_failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("booking.insert.create_failed: %w", err)
	}

	if err := resolution.Commit(id); err != nil {
		return nil, err
	}

	logger.Info("booking.insert.committed", out.LogFields{
		"appointmentId": id,
	})
	return resolution, nil
}

func (s *BookingService) Resolve(ctx context.Context, resolution *domain.ConflictResolution, action domain.ConflictAction) error {
	if resolution == nil {
		return domain.ErrResolutionNotFound
	}
	if !action.IsValid() {
		return &domain.ValidationError{Fields: []string{"action"}}
	}

	logger := s.logger.WithFields(out.LogFields{
		"resolutionId": resolution.ID,
		"action":       action,
	})

	switch action {
	case domain.ConflictActionChooseAnotherSlot:
		if err := resolution.ChooseAnotherSlot(); err != nil {
			return err
		}
		logger.Info("booking.conflict.slot_cleared", out.LogFields{})
		return nil

	case domain.ConflictActionReschedule:
		err := resolution.RequestReschedule()
		logger.Warn("booking.conflict.reschedule_requested", out.LogFields{
			"error": err.Error(),
		})
		return err
	}

	return s.replace(ctx, resolution, logger)
}

// replace — два отдельных шага без транзакции: сначала отмена конфликтующей записи,
// и только после успешной отмены создание новой
func (s *BookingService) replace(ctx context.Context, resolution *domain.ConflictResolution, logger out.LoggerPort) error {
	if err := resolution.BeginReplace(); err != nil {
		return err
	}

	conflictID := resolution.Conflict.ID
	if err := s.appointmentPort.UpdateAppointmentStatus(ctx, conflictID, domain.AppointmentStatusCancelled); err != nil {
		logger.Error("booking.conflict.replace.cancel_failed", out.LogFields{
			"conflictId": conflictID,
			"error":      err.Error(),
		})
		if transitionErr := resolution.CancelFailed(); transitionErr != nil {
			return transitionErr
		}
		return fmt.Errorf("%w: %w", domain.ErrPartialFailure, err)
	}

	logger.Info("booking.conflict.replace.cancelled", out.LogFields{
		"conflictId": conflictID,
	})

	id, err := s.appointmentPort.CreateAppointment(ctx, *resolution.Candidate)
	if err != nil {
		if errors.Is(err, domain.ErrSlotTaken) {
			if reenterErr := s.reenterConflict(ctx, resolution, err); reenterErr != nil {
				return reenterErr
			}
			// Старая запись уже отменена, слот занял другой писатель: замена не выполнена
			return fmt.Errorf("%w: conflicting appointment %s was cancelled, slot taken by %s",
				domain.ErrSlotTaken, conflictID, resolution.Conflict.ID)
		}
		logger.Error("booking.conflict.replace.create_failed", out.LogFields{
			"conflictId": conflictID,
			"error":      err.Error(),
		})
		if transitionErr := resolution.CreateFailed(); transitionErr != nil {
			return transitionErr
		}
		return fmt.Errorf("booking.conflict.replace.create_failed: %w", err)
	}

	if err := resolution.Replaced(id); err != nil {
		return err
	}

	logger.Info("booking.conflict.replace.completed", out.LogFields{
		"conflictId":    conflictID,
		"appointmentId": id,
	})
	return nil
}

// reenterConflict — хранилище отклонило второго писателя, это новый конфликт, а не фатальная ошибка
func (s *BookingService) reenterConflict(ctx context.Context, resolution *domain.ConflictResolution, cause error) error {
	candidate := resolution.Candidate

	conflict, err := s.FindConflict(ctx, candidate.ProviderID, candidate.Date, candidate.StartTime)
	if err == nil && conflict != nil {
		s.logger.Info("booking.conflict.detected_on_write", out.LogFields{
			"resolutionId": resolution.ID,
			"conflictId":   conflict.ID,
		})
		return resolution.DetectConflict(*conflict)
	}

	// Конфликтующая запись не видна (например, ее уже отменили) — повторить попытку должен вызывающий
	if resolution.State == domain.ConflictResolutionStateResolving {
		if transitionErr := resolution.CreateFailed(); transitionErr != nil {
			return transitionErr
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", cause, err)
	}
	return cause
}
