package availability_service

import (
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

// ResolveWindow определяет рабочее окно сотрудника на дату, nil — не работает.
// Порядок, первое совпадение побеждает:
// 1. активное исключение на дату: day_off/vacation — не работает, normal — окно исключения
// 2. активное еженедельное normal-правило на день недели
// 3. иначе не работает, окна по умолчанию нет
func ResolveWindow(rules []domain.ScheduleRule, providerID string, date json_types.Date, logger out.LoggerPort) *domain.Window {
	var override *domain.ScheduleRule
	for i := range rules {
		rule := rules[i]
		if !rule.AppliesToDate(providerID, date) || !isValidRule(rule, logger) {
			continue
		}
		if override != nil {
			logger.Warn("availability.resolve.duplicate_override", out.LogFields{
				"providerId": providerID,
				"date":       date,
				"usedRuleId": override.ID,
				"skipRuleId": rule.ID,
			})
			continue
		}
		override = &rules[i]
	}

	if override != nil {
		if !override.Kind.IsWorking() {
			return nil
		}
		window := override.Window
		return &window
	}

	for _, rule := range rules {
		if !rule.AppliesToWeekday(providerID, date) || !rule.Kind.IsWorking() || !isValidRule(rule, logger) {
			continue
		}
		window := rule.Window
		return &window
	}

	return nil
}

func isValidRule(rule domain.ScheduleRule, logger out.LoggerPort) bool {
	if err := rule.Validate(); err != nil {
		logger.Warn("availability.resolve.invalid_rule", out.LogFields{
			"ruleId": rule.ID,
			"error":  err.Error(),
		})
		return false
	}
	return true
}
