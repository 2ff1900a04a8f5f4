package availability_service

import (
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

// GenerateSlots нарезает окно на слоты длительностью услуги.
// Конец окна включительно: слот допустим, если услуга заканчивается ровно в конец окна или раньше.
func GenerateSlots(window *domain.Window, durationMinutes int) []json_types.TimeOfDay {
	slots := make([]json_types.TimeOfDay, 0)
	if window == nil || durationMinutes <= 0 {
		return slots
	}
	// Заодно исключает переполнение при сдвиге курсора
	if durationMinutes > window.End.Minutes()-window.Start.Minutes() {
		return slots
	}

	for cursor := window.Start; !cursor.AddMinutes(durationMinutes).After(window.End); cursor = cursor.AddMinutes(durationMinutes) {
		slots = append(slots, cursor)
	}

	return slots
}
