package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/in"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

type AvailabilityController struct {
	useCase in.AvailabilityUseCase
	logger  out.LoggerPort
}

func NewAvailabilityController(useCase in.AvailabilityUseCase, logger out.LoggerPort) *AvailabilityController {
	return &AvailabilityController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *AvailabilityController) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/providers/:providerId/availability", c.getAvailability)
}

type AvailabilityRequest struct {
	Date     string `form:"date" binding:"required"`
	Duration string `form:"duration" binding:"required"`
	Debug    bool   `form:"debug"`
}

func (c *AvailabilityController) getAvailability(ctx *gin.Context) {
	var req AvailabilityRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := make([]string, 0)
	date, err := json_types.ParseDate(req.Date)
	if err != nil {
		fields = append(fields, "date")
	}
	duration, err := strconv.Atoi(req.Duration)
	if err != nil {
		fields = append(fields, "duration")
	}
	if len(fields) > 0 {
		writeError(ctx, &domain.ValidationError{Fields: fields})
		return
	}

	result, err := c.useCase.GetAvailability(ctx.Request.Context(), in.AvailabilityQuery{
		ProviderID:      ctx.Param("providerId"),
		Date:            date,
		DurationMinutes: duration,
	})
	if err != nil {
		c.logger.Error("http.availability.failed", out.LogFields{
			"providerId": ctx.Param("providerId"),
			"error":      err.Error(),
		})
		writeError(ctx, err)
		return
	}

	if !req.Debug {
		result.Debug = nil
	}

	ctx.JSON(http.StatusOK, result)
}
