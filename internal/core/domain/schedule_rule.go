package domain

import (
	"fmt"
	"time"

	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type ScheduleRuleDaysOfWeek string

const (
	ScheduleRuleDaysOfWeekMon ScheduleRuleDaysOfWeek = "mon"
	ScheduleRuleDaysOfWeekTue ScheduleRuleDaysOfWeek = "tue"
	ScheduleRuleDaysOfWeekWed ScheduleRuleDaysOfWeek = "wed"
	ScheduleRuleDaysOfWeekThu ScheduleRuleDaysOfWeek = "thu"
	ScheduleRuleDaysOfWeekFri ScheduleRuleDaysOfWeek = "fri"
	ScheduleRuleDaysOfWeekSat ScheduleRuleDaysOfWeek = "sat"
	ScheduleRuleDaysOfWeekSun ScheduleRuleDaysOfWeek = "sun"
)

var ScheduleRuleDaysOfWeekMap = map[time.Weekday]ScheduleRuleDaysOfWeek{
	time.Monday:    ScheduleRuleDaysOfWeekMon,
	time.Tuesday:   ScheduleRuleDaysOfWeekTue,
	time.Wednesday: ScheduleRuleDaysOfWeekWed,
	time.Thursday:  ScheduleRuleDaysOfWeekThu,
	time.Friday:    ScheduleRuleDaysOfWeekFri,
	time.Saturday:  ScheduleRuleDaysOfWeekSat,
	time.Sunday:    ScheduleRuleDaysOfWeekSun,
}

func DayOfWeekOf(date json_types.Date) ScheduleRuleDaysOfWeek {
	return ScheduleRuleDaysOfWeekMap[date.Weekday()]
}

type ScheduleRuleKind string

const (
	ScheduleRuleKindNormal   ScheduleRuleKind = "normal"
	ScheduleRuleKindDayOff   ScheduleRuleKind = "day_off"
	ScheduleRuleKindVacation ScheduleRuleKind = "vacation"
)

// IsWorking — только normal означает, что сотрудник работает в окне правила
func (k ScheduleRuleKind) IsWorking() bool {
	return k == ScheduleRuleKindNormal
}

// Window — рабочий интервал в пределах одного дня, [Start, End)
type Window struct {
	Start json_types.TimeOfDay `json:"start"`
	End   json_types.TimeOfDay `json:"end"`
}

// ScheduleRuleScope задается ровно одним полем:
// DayOfWeek — еженедельное правило, Date — исключение на конкретную дату
type ScheduleRuleScope struct {
	DayOfWeek ScheduleRuleDaysOfWeek `json:"dayOfWeek,omitempty"`
	Date      *json_types.Date       `json:"date,omitempty"`
}

func (s ScheduleRuleScope) IsWeekly() bool {
	return s.DayOfWeek != "" && s.Date == nil
}

func (s ScheduleRuleScope) IsDateOverride() bool {
	return s.Date != nil && s.DayOfWeek == ""
}

type ScheduleRule struct {
	ID         string            `json:"id"`
	ProviderID string            `json:"provider"`
	Scope      ScheduleRuleScope `json:"scope"`
	Kind       ScheduleRuleKind  `json:"kind"`
	Window     Window            `json:"window"`
	Active     bool              `json:"active"`
}

func (r ScheduleRule) Validate() error {
	if r.Scope.IsWeekly() == r.Scope.IsDateOverride() {
		return fmt.Errorf("schedule rule %s: exactly one of dayOfWeek or date must be set", r.ID)
	}

	if r.Scope.IsWeekly() {
		if _, ok := dayOfWeekIndex[r.Scope.DayOfWeek]; !ok {
			return fmt.Errorf("schedule rule %s: unknown day of week %q", r.ID, r.Scope.DayOfWeek)
		}
	}

	switch r.Kind {
	case ScheduleRuleKindNormal:
		if !r.Window.Start.IsValid() || !r.Window.End.IsValid() || !r.Window.Start.Before(r.Window.End) {
			return fmt.Errorf("schedule rule %s: window %s-%s is empty", r.ID, r.Window.Start, r.Window.End)
		}
	case ScheduleRuleKindDayOff, ScheduleRuleKindVacation:
	default:
		return fmt.Errorf("schedule rule %s: unknown kind %q", r.ID, r.Kind)
	}

	return nil
}

// AppliesToDate — правило-исключение на указанную дату
func (r ScheduleRule) AppliesToDate(providerID string, date json_types.Date) bool {
	return r.Active && r.ProviderID == providerID && r.Scope.IsDateOverride() && r.Scope.Date.Equal(date)
}

// AppliesToWeekday — еженедельное правило на день недели указанной даты
func (r ScheduleRule) AppliesToWeekday(providerID string, date json_types.Date) bool {
	return r.Active && r.ProviderID == providerID && r.Scope.IsWeekly() && r.Scope.DayOfWeek == DayOfWeekOf(date)
}

var dayOfWeekIndex = func() map[ScheduleRuleDaysOfWeek]time.Weekday {
	index := make(map[ScheduleRuleDaysOfWeek]time.Weekday, len(ScheduleRuleDaysOfWeekMap))
	for weekday, day := range ScheduleRuleDaysOfWeekMap {
		index[day] = weekday
	}
	return index
}()
