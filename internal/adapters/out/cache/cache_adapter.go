package cache

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

// Repository — хранилище, которое кэширует адаптер
type Repository interface {
	out.SchedulePort
	out.AppointmentPort
}

// CacheAdapter — кэширующий декоратор над хранилищем правил и записей.
// Кэшируются только выборки по одному сотруднику; любая запись через адаптер
// сбрасывает кэш этого сотрудника.
type CacheAdapter struct {
	next              Repository
	rulesCache        *lru.Cache[string, []domain.ScheduleRule]
	appointmentsCache *lru.Cache[string, []domain.Appointment]
	// appointmentId -> providerId, чтобы знать чей кэш сбрасывать при смене статуса
	owners map[string]string
	// Выборка попадает в кэш, только если с начала запроса к хранилищу не было сброса
	rulesGen        generations
	appointmentsGen generations
	mu              sync.Mutex
	logger          out.LoggerPort
}

// generations — счетчики сбросов кэша: общий и по сотруднику. Доступ под CacheAdapter.mu
type generations struct {
	all        uint64
	byProvider map[string]uint64
}

func newGenerations() generations {
	return generations{byProvider: make(map[string]uint64)}
}

func (g *generations) current(providerID string) uint64 {
	return g.all + g.byProvider[providerID]
}

func (g *generations) bump(providerID string) {
	if providerID == "" {
		g.all++
		return
	}
	g.byProvider[providerID]++
}

func NewCacheAdapter(cfg *config.Config, next Repository, logger out.LoggerPort) (*CacheAdapter, error) {
	rulesCache, err := lru.New[string, []domain.ScheduleRule](cfg.Cache.Size)
	if err != nil {
		logger.Error("cache.schedule_rules.init_failed", out.LogFields{
			"error": err.Error(),
			"size":  cfg.Cache.Size,
		})
		return nil, err
	}

	appointmentsCache, err := lru.New[string, []domain.Appointment](cfg.Cache.Size)
	if err != nil {
		logger.Error("cache.appointments.init_failed", out.LogFields{
			"error": err.Error(),
			"size":  cfg.Cache.Size,
		})
		return nil, err
	}

	return &CacheAdapter{
		next:              next,
		rulesCache:        rulesCache,
		appointmentsCache: appointmentsCache,
		owners:            make(map[string]string),
		rulesGen:          newGenerations(),
		appointmentsGen:   newGenerations(),
		logger:            logger.WithModule("CacheAdapter"),
	}, nil
}

func (c *CacheAdapter) ListScheduleRules(ctx context.Context, providerID string) ([]domain.ScheduleRule, error) {
	if providerID == "" {
		return c.next.ListScheduleRules(ctx, providerID)
	}

	if rules, ok := c.rulesCache.Get(providerID); ok {
		c.logger.Debug("cache.schedule_rules.get.hit", out.LogFields{
			"providerId": providerID,
			"count":      len(rules),
		})
		return cloneRules(rules), nil
	}

	c.logger.Debug("cache.schedule_rules.get.miss", out.LogFields{
		"providerId": providerID,
	})

	c.mu.Lock()
	generation := c.rulesGen.current(providerID)
	c.mu.Unlock()

	rules, err := c.next.ListScheduleRules(ctx, providerID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rulesGen.current(providerID) != generation {
		c.logger.Debug("cache.schedule_rules.store.skipped_stale", out.LogFields{
			"providerId": providerID,
		})
		return rules, nil
	}
	c.rulesCache.Add(providerID, cloneRules(rules))

	return rules, nil
}

func (c *CacheAdapter) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	key, cacheable := appointmentsKey(filter)
	if !cacheable {
		return c.next.ListAppointments(ctx, filter)
	}

	if appointments, ok := c.appointmentsCache.Get(key); ok {
		c.logger.Debug("cache.appointments.get.hit", out.LogFields{
			"key":   key,
			"count": len(appointments),
		})
		return cloneAppointments(appointments), nil
	}

	c.logger.Debug("cache.appointments.get.miss", out.LogFields{
		"key": key,
	})

	c.mu.Lock()
	generation := c.appointmentsGen.current(filter.ProviderID)
	c.mu.Unlock()

	appointments, err := c.next.ListAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, appointment := range appointments {
		c.owners[appointment.ID] = appointment.ProviderID
	}
	// Пока шел запрос, запись через адаптер или событие сбросили кэш: снимок мог устареть
	if c.appointmentsGen.current(filter.ProviderID) != generation {
		c.logger.Debug("cache.appointments.store.skipped_stale", out.LogFields{
			"key": key,
		})
		return appointments, nil
	}
	c.appointmentsCache.Add(key, cloneAppointments(appointments))

	return appointments, nil
}

func (c *CacheAdapter) CreateAppointment(ctx context.Context, appointment domain.Appointment) (string, error) {
	id, err := c.next.CreateAppointment(ctx, appointment)
	// Даже отказ мог означать, что наш кэш отстал от хранилища
	c.InvalidateAppointments(ctx, appointment.ProviderID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.owners[id] = appointment.ProviderID
	c.mu.Unlock()

	return id, nil
}

func (c *CacheAdapter) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error {
	err := c.next.UpdateAppointmentStatus(ctx, appointmentID, status)

	c.mu.Lock()
	providerID, known := c.owners[appointmentID]
	c.mu.Unlock()

	if known {
		c.InvalidateAppointments(ctx, providerID)
	} else {
		c.logger.Debug("cache.appointments.owner_unknown", out.LogFields{
			"appointmentId": appointmentID,
		})
		c.InvalidateAppointments(ctx, "")
	}

	return err
}

func (c *CacheAdapter) InvalidateProvider(ctx context.Context, providerID string) {
	c.InvalidateScheduleRules(ctx, providerID)
	c.InvalidateAppointments(ctx, providerID)
}

func (c *CacheAdapter) InvalidateScheduleRules(ctx context.Context, providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rulesGen.bump(providerID)
	if providerID == "" {
		c.rulesCache.Purge()
		return
	}
	c.rulesCache.Remove(providerID)

	c.logger.Debug("cache.schedule_rules.invalidated", out.LogFields{
		"providerId": providerID,
	})
}

func (c *CacheAdapter) InvalidateAppointments(ctx context.Context, providerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appointmentsGen.bump(providerID)
	if providerID == "" {
		c.appointmentsCache.Purge()
		return
	}

	prefix := providerID + "|"
	removed := 0
	for _, key := range c.appointmentsCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.appointmentsCache.Remove(key)
			removed++
		}
	}

	c.logger.Debug("cache.appointments.invalidated", out.LogFields{
		"providerId": providerID,
		"removed":    removed,
	})
}

func (c *CacheAdapter) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	c.rulesGen.bump("")
	c.appointmentsGen.bump("")
	c.rulesCache.Purge()
	c.appointmentsCache.Purge()
	c.owners = make(map[string]string)
	c.mu.Unlock()

	c.logger.Info("cache.invalidated_all", out.LogFields{})
}

func appointmentsKey(filter domain.AppointmentFilter) (string, bool) {
	if filter.ProviderID == "" || filter.From == nil || filter.To == nil {
		return "", false
	}
	return filter.ProviderID + "|" + filter.From.String() + "|" + filter.To.String(), true
}

func cloneRules(rules []domain.ScheduleRule) []domain.ScheduleRule {
	return append(make([]domain.ScheduleRule, 0, len(rules)), rules...)
}

func cloneAppointments(appointments []domain.Appointment) []domain.Appointment {
	return append(make([]domain.Appointment, 0, len(appointments)), appointments...)
}
