package json_types

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date — календарная дата без времени и таймзоны
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(str string) (Date, error) {
	parsed, err := time.Parse(dateLayout, str)
	if err != nil {
		return Date{}, fmt.Errorf("failed to parse date %q: %w", str, err)
	}
	return DateOf(parsed), nil
}

// MustDate паникует на невалидном значении, используется для констант и тестов
func MustDate(str string) Date {
	d, err := ParseDate(str)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf берет календарную дату в таймзоне переданного времени
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

func (d Date) AddDays(days int) Date {
	return DateOf(d.time().AddDate(0, 0, days))
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Equal(other Date) bool { return d == other }

func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

func (d Date) After(other Date) bool {
	return d.time().After(other.time())
}

func (d Date) String() string {
	return d.time().Format(dateLayout)
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("failed to parse date: %w", err)
	}

	parsed, err := ParseDate(str)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
