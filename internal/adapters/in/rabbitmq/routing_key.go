package rabbitmq

import (
	"fmt"
	"strings"
)

type (
	EventAction       string
	EventResourceType string
)

const (
	EventResourceTypeAll          EventResourceType = "_all_"
	EventResourceTypeScheduleRule EventResourceType = "schedulerule"
	EventResourceTypeAppointment  EventResourceType = "appointment"
)

const (
	EventActionStore      EventAction = "store"
	EventActionInvalidate EventAction = "invalidate"
)

// RoutingKey — разобранный ключ события хранилища
type RoutingKey struct {
	Source       string
	Receiver     string
	ResourceType EventResourceType
	ProviderID   string
	Action       EventAction
}

// ParseRoutingKey разбирает ключ вида {source}.{receiver}.{resource}.{provider}.{action}, например:
// records.availability-svc.schedulerule.dr-ivanova.store
// records.availability-svc.appointment.dr-ivanova.invalidate
// records.availability-svc._all_._all_.invalidate
func ParseRoutingKey(routingKey string) (RoutingKey, error) {
	parts := strings.Split(routingKey, ".")
	if len(parts) != 5 {
		return RoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
	}
	for _, part := range parts {
		if part == "" {
			return RoutingKey{}, fmt.Errorf("invalid routing key: %s", routingKey)
		}
	}

	key := RoutingKey{
		Source:       parts[0],
		Receiver:     parts[1],
		ResourceType: EventResourceType(parts[2]),
		ProviderID:   parts[3],
		Action:       EventAction(parts[4]),
	}
	if key.ProviderID == string(EventResourceTypeAll) {
		key.ProviderID = ""
	}

	return key, nil
}
