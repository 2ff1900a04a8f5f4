package in

import (
	"context"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type AvailabilityQuery struct {
	ProviderID      string
	Date            json_types.Date
	DurationMinutes int
}

type AvailabilityResult struct {
	ProviderID string                 `json:"provider"`
	Date       json_types.Date        `json:"date"`
	Working    bool                   `json:"working"`
	Available  []json_types.TimeOfDay `json:"available"`
	Slots      []domain.Slot          `json:"slots"`
	Debug      []domain.DebugInfo     `json:"debug,omitempty"`
}

type AvailabilityUseCase interface {
	// Расчет всегда выполняется заново по свежим данным хранилища
	GetAvailability(ctx context.Context, query AvailabilityQuery) (*AvailabilityResult, error)
}
