package domain

import (
	"github.com/shopspring/decimal"
	"github.com/suchimauz/appointment-availability-engine/internal/core/json_types"
)

type AppointmentStatus string

const (
	AppointmentStatusRequested AppointmentStatus = "requested"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusRequested, AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo описывает жизненный цикл записи:
// requested -> confirmed -> completed, любое не отмененное -> cancelled
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch next {
	case AppointmentStatusConfirmed:
		return s == AppointmentStatusRequested
	case AppointmentStatusCompleted:
		return s == AppointmentStatusConfirmed
	case AppointmentStatusCancelled:
		return s.IsValid() && s != AppointmentStatusCancelled
	}
	return false
}

type Customer struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
}

type Appointment struct {
	ID         string               `json:"id"`
	ProviderID string               `json:"provider"`
	Date       json_types.Date      `json:"date"`
	StartTime  json_types.TimeOfDay `json:"startTime"`
	EndTime    json_types.TimeOfDay `json:"endTime"`
	Status     AppointmentStatus    `json:"status"`
	Customer   Customer             `json:"customer"`
	ServiceID  string               `json:"serviceId"`
	Price      decimal.Decimal      `json:"price"`
}

func (a Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// OccupiesStart — подтвержденная запись того же сотрудника, даты и времени начала
func (a Appointment) OccupiesStart(providerID string, date json_types.Date, start json_types.TimeOfDay) bool {
	return a.IsConfirmed() && a.ProviderID == providerID && a.Date.Equal(date) && a.StartTime.Equal(start)
}

// AppointmentFilter — пустые поля не ограничивают выборку
type AppointmentFilter struct {
	ProviderID string
	From       *json_types.Date
	To         *json_types.Date
}

// ForDay — выборка записей сотрудника на одну дату
func ForDay(providerID string, date json_types.Date) AppointmentFilter {
	return AppointmentFilter{ProviderID: providerID, From: &date, To: &date}
}

func (f AppointmentFilter) Matches(a Appointment) bool {
	if f.ProviderID != "" && a.ProviderID != f.ProviderID {
		return false
	}
	if f.From != nil && a.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && a.Date.After(*f.To) {
		return false
	}
	return true
}
