package availability_service

import (
	"sync"

	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

type AvailabilityServiceDebug struct {
	mu   sync.Mutex
	data []domain.DebugInfo
}

// track замеряет этап и сохраняет результат, даже если этап завершился ошибкой
func (d *AvailabilityServiceDebug) track(event string, fn func() error) error {
	info := domain.DebugInfo{Event: event}
	info.Start()
	err := fn()
	info.Elapse()
	if err != nil {
		info.AddOption("error", err.Error())
	}
	d.AddDebugInfo(info)
	return err
}

func (d *AvailabilityServiceDebug) AddDebugInfo(info domain.DebugInfo) {
	d.mu.Lock()
	d.data = append(d.data, info)
	d.mu.Unlock()
}

func (d *AvailabilityServiceDebug) Data() []domain.DebugInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.DebugInfo(nil), d.data...)
}
