package availability_service

import (
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

// FilterAvailable сохраняет порядок слотов и убирает:
// - слоты, время начала которых совпадает с подтвержденной записью того же сотрудника и даты
// - на сегодняшнюю дату слоты с началом <= текущему времени (запаса времени нет)
// now должен быть уже переведен в таймзону расписания.
func FilterAvailable(candidates []json_types.TimeOfDay, providerID string, date json_types.Date, appointments []domain.Appointment, now time.Time) []json_types.TimeOfDay {
	occupied := make(map[int]struct{})
	for _, appointment := range appointments {
		if appointment.IsConfirmed() && appointment.ProviderID == providerID && appointment.Date.Equal(date) {
			occupied[appointment.StartTime.Minutes()] = struct{}{}
		}
	}

	isToday := json_types.DateOf(now).Equal(date)
	nowTime := json_types.TimeOfDayOf(now)

	available := make([]json_types.TimeOfDay, 0, len(candidates))
	for _, slot := range candidates {
		if _, taken := occupied[slot.Minutes()]; taken {
			continue
		}
		if isToday && !slot.After(nowTime) {
			continue
		}
		available = append(available, slot)
	}

	return available
}

// tagSlots помечает все сгенерированные слоты признаком доступности
func tagSlots(candidates, available []json_types.TimeOfDay, durationMinutes int) []domain.Slot {
	free := make(map[int]struct{}, len(available))
	for _, slot := range available {
		free[slot.Minutes()] = struct{}{}
	}

	slots := make([]domain.Slot, 0, len(candidates))
	for _, start := range candidates {
		_, ok := free[start.Minutes()]
		slots = append(slots, domain.Slot{
			Start:     start,
			End:       start.AddMinutes(durationMinutes),
			Available: ok,
		})
	}
	return slots
}
