package json_types

import (
	"encoding/json"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay — время суток с точностью до минуты (минуты от полуночи).
// 24:00 допустимо только как конец рабочего окна.
type TimeOfDay struct {
	minutes int
}

func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return TimeOfDay{}, fmt.Errorf("invalid time of day: %02d:%02d", hour, minute)
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// MustTimeOfDay паникует на невалидном значении, используется для констант и тестов
func MustTimeOfDay(str string) TimeOfDay {
	t, err := ParseTimeOfDay(str)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay принимает строго "15:04" или "15:04:05" (секунды должны быть нулевыми)
func ParseTimeOfDay(str string) (TimeOfDay, error) {
	if len(str) != len("15:04") && len(str) != len("15:04:05") {
		return TimeOfDay{}, fmt.Errorf("failed to parse time of day %q", str)
	}

	fields := make([]int, 0, 3)
	for i := 0; i < len(str); i += 3 {
		if i > 0 && str[i-1] != ':' {
			return TimeOfDay{}, fmt.Errorf("failed to parse time of day %q: expected ':'", str)
		}
		value, ok := twoDigits(str[i : i+2])
		if !ok {
			return TimeOfDay{}, fmt.Errorf("failed to parse time of day %q: expected two digits", str)
		}
		fields = append(fields, value)
	}

	if len(fields) == 3 && fields[2] != 0 {
		return TimeOfDay{}, fmt.Errorf("failed to parse time of day %q: seconds are not supported", str)
	}

	return NewTimeOfDay(fields[0], fields[1])
}

func twoDigits(str string) (int, bool) {
	if str[0] < '0' || str[0] > '9' || str[1] < '0' || str[1] > '9' {
		return 0, false
	}
	return int(str[0]-'0')*10 + int(str[1]-'0'), true
}

// TimeOfDayOf отбрасывает секунды: 09:30:45 -> 09:30
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{minutes: t.Hour()*60 + t.Minute()}
}

func (t TimeOfDay) Hour() int   { return t.minutes / 60 }
func (t TimeOfDay) Minute() int { return t.minutes % 60 }

// Minutes возвращает количество минут от полуночи
func (t TimeOfDay) Minutes() int { return t.minutes }

// AddMinutes не ограничивает результат концом суток, сравнения с 24:00 остаются корректными
func (t TimeOfDay) AddMinutes(minutes int) TimeOfDay {
	return TimeOfDay{minutes: t.minutes + minutes}
}

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }
func (t TimeOfDay) After(other TimeOfDay) bool  { return t.minutes > other.minutes }
func (t TimeOfDay) Equal(other TimeOfDay) bool  { return t.minutes == other.minutes }

func (t TimeOfDay) IsValid() bool {
	return t.minutes >= 0 && t.minutes <= minutesPerDay
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On возвращает момент времени в указанную дату и таймзону
func (t TimeOfDay) On(date Date, location *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, t.Hour(), t.Minute(), 0, 0, location)
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("failed to parse time of day: %w", err)
	}

	parsed, err := ParseTimeOfDay(str)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
