package out

import (
	"context"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

type SchedulePort interface {
	// Пустой providerID возвращает правила всех сотрудников
	ListScheduleRules(ctx context.Context, providerID string) ([]domain.ScheduleRule, error)
}
