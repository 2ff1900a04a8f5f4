package domain

import "github.com/suchimauz/appointment-availability-engine/internal/core/json_types"

// MaxDurationMinutes — услуга не может быть длиннее суток
const MaxDurationMinutes = 24 * 60

// Slot вычисляется на каждый запрос и нигде не хранится
type Slot struct {
	Start     json_types.TimeOfDay `json:"begin"`
	End       json_types.TimeOfDay `json:"end"`
	Available bool                 `json:"available"`
}
