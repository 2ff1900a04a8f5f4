package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

func statusForError(err error) int {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAppointmentNotFound), errors.Is(err, domain.ErrResolutionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRescheduleNotAvailable):
		return http.StatusNotImplemented
	// Порядок важен: частичный сбой может оборачивать ошибку транспорта
	case errors.Is(err, domain.ErrPartialFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrSlotTaken),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		body["fields"] = validationErr.Fields
	}
	return body
}

func writeError(ctx *gin.Context, err error) {
	ctx.JSON(statusForError(err), errorBody(err))
}
