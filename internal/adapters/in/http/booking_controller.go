package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type BookingController struct {
	useCase     in.BookingUseCase
	resolutions *resolutionStore
	logger      out.LoggerPort
}

func NewBookingController(useCase in.BookingUseCase, sessions int, logger out.LoggerPort) (*BookingController, error) {
	resolutions, err := newResolutionStore(sessions)
	if err != nil {
		return nil, err
	}

	return &BookingController{
		useCase:     useCase,
		resolutions: resolutions,
		logger:      logger,
	}, nil
}

func (c *BookingController) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/bookings", c.book)
	api.POST("/appointments/manual", c.insertAppointment)
	api.PATCH("/appointments/:appointmentId/status", c.updateStatus)
	api.GET("/conflicts/:resolutionId", c.getResolution)
	api.POST("/conflicts/:resolutionId/:action", c.resolve)
}

type UpdateStatusRequest struct {
	Status domain.AppointmentStatus `json:"status" binding:"required"`
}

func (c *BookingController) book(ctx *gin.Context) {
	var req in.BookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointment, err := c.useCase.Book(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, appointment)
}

func (c *BookingController) insertAppointment(ctx *gin.Context) {
	var req in.BookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolution, err := c.useCase.InsertAppointment(ctx.Request.Context(), req)
	if err != nil {
		writeError(ctx, err)
		return
	}

	if resolution.IsResolved() {
		ctx.JSON(http.StatusCreated, resolution)
		return
	}

	// Конфликт — обычный ответ, оператор выбирает действие следующим запросом
	c.resolutions.put(resolution)
	ctx.JSON(http.StatusOK, resolution)
}

func (c *BookingController) getResolution(ctx *gin.Context) {
	session, ok := c.resolutions.get(ctx.Param("resolutionId"))
	if !ok {
		writeError(ctx, domain.ErrResolutionNotFound)
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	ctx.JSON(http.StatusOK, session.resolution)
}

func (c *BookingController) resolve(ctx *gin.Context) {
	resolutionID := ctx.Param("resolutionId")
	action := domain.ConflictAction(ctx.Param("action"))

	session, ok := c.resolutions.get(resolutionID)
	if !ok {
		writeError(ctx, domain.ErrResolutionNotFound)
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	err := c.useCase.Resolve(ctx.Request.Context(), session.resolution, action)

	// Действия оператора возможны только из awaiting_choice, остальные автоматы больше не нужны
	if session.resolution.State != domain.ConflictResolutionStateAwaitingChoice {
		c.resolutions.remove(resolutionID)
	}

	if err != nil {
		c.logger.Warn("http.conflict.resolve_failed", out.LogFields{
			"resolutionId": resolutionID,
			"action":       action,
			"error":        err.Error(),
		})
		body := errorBody(err)
		var validationErr *domain.ValidationError
		if !errors.As(err, &validationErr) {
			body["resolution"] = session.resolution
		}
		ctx.JSON(statusForError(err), body)
		return
	}

	ctx.JSON(http.StatusOK, session.resolution)
}

func (c *BookingController) updateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointmentID := ctx.Param("appointmentId")
	if err := c.useCase.UpdateStatus(ctx.Request.Context(), appointmentID, req.Status); err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":     appointmentID,
		"status": req.Status,
	})
}
