package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const (
	claimPending = "pending"
	// Захват "в процессе" живет недолго, чтобы упавший писатель не держал слот
	pendingTTL = 30 * time.Second
)

// Client — подмножество команд go-redis, которое использует guard
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

func NewClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// SlotGuard — декоратор над AppointmentPort: перед подтверждением записи
// слот захватывается через SETNX, второй писатель получает ErrSlotTaken
// без обращения к хранилищу. Хранилище остается источником истины:
// при недоступности Redis запрос проходит дальше без захвата.
type SlotGuard struct {
	next   out.AppointmentPort
	client Client
	ttl    time.Duration
	logger out.LoggerPort
}

func NewSlotGuard(cfg *config.Config, next out.AppointmentPort, client Client, logger out.LoggerPort) *SlotGuard {
	return &SlotGuard{
		next:   next,
		client: client,
		ttl:    cfg.Redis.ClaimTTL,
		logger: logger.WithModule("RedisSlotGuard"),
	}
}

func SlotKey(appointment domain.Appointment) string {
	return fmt.Sprintf("booking:%s:%s:%s", appointment.ProviderID, appointment.Date, appointment.StartTime)
}

func appointmentKey(appointmentID string) string {
	return "booking:appointment:" + appointmentID
}

func (g *SlotGuard) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	return g.next.ListAppointments(ctx, filter)
}

func (g *SlotGuard) CreateAppointment(ctx context.Context, appointment domain.Appointment) (string, error) {
	slotKey := SlotKey(appointment)

	claimed := false
	if appointment.IsConfirmed() {
		var err error
		claimed, err = g.claim(ctx, slotKey, &appointment)
		if errors.Is(err, domain.ErrSlotTaken) {
			return "", err
		}
	}

	id, err := g.next.CreateAppointment(ctx, appointment)
	if err != nil {
		if claimed {
			g.release(ctx, slotKey)
		}
		return "", err
	}

	if claimed {
		if err := g.client.Set(ctx, slotKey, id, g.ttl).Err(); err != nil {
			g.logger.Warn("redis.slot.claim_update_failed", out.LogFields{
				"key":   slotKey,
				"error": err.Error(),
			})
		}
	}
	if err := g.client.Set(ctx, appointmentKey(id), slotKey, g.ttl).Err(); err != nil {
		g.logger.Warn("redis.appointment.index_failed", out.LogFields{
			"appointmentId": id,
			"error":         err.Error(),
		})
	}

	return id, nil
}

func (g *SlotGuard) UpdateAppointmentStatus(ctx context.Context, appointmentID string, status domain.AppointmentStatus) error {
	slotKey, err := g.client.Get(ctx, appointmentKey(appointmentID)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			g.logger.Warn("redis.appointment.lookup_failed", out.LogFields{
				"appointmentId": appointmentID,
				"error":         err.Error(),
			})
		}
		// Запись создана в обход guard — решает только хранилище
		return g.next.UpdateAppointmentStatus(ctx, appointmentID, status)
	}

	switch status {
	case domain.AppointmentStatusConfirmed:
		claimed, err := g.claim(ctx, slotKey, nil)
		if errors.Is(err, domain.ErrSlotTaken) {
			return err
		}
		if err := g.next.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
			if claimed {
				g.release(ctx, slotKey)
			}
			return err
		}
		if claimed {
			_ = g.client.Set(ctx, slotKey, appointmentID, g.ttl).Err()
		}
		return nil

	case domain.AppointmentStatusCancelled:
		if err := g.next.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
			return err
		}
		owner, err := g.client.Get(ctx, slotKey).Result()
		if err == nil && owner == appointmentID {
			g.release(ctx, slotKey)
		}
		g.release(ctx, appointmentKey(appointmentID))
		return nil
	}

	return g.next.UpdateAppointmentStatus(ctx, appointmentID, status)
}

// claim возвращает true, если ключ захвачен этим вызовом.
// Если передан candidate, занятый ключ сверяется с хранилищем: захват,
// оставшийся от записи, отмененной в обход guard, перезаписывается.
func (g *SlotGuard) claim(ctx context.Context, slotKey string, candidate *domain.Appointment) (bool, error) {
	ok, err := g.client.SetNX(ctx, slotKey, claimPending, pendingTTL).Result()
	if err != nil {
		g.logger.Warn("redis.slot.claim_failed", out.LogFields{
			"key":   slotKey,
			"error": err.Error(),
		})
		return false, err
	}
	if ok {
		return true, nil
	}

	if candidate != nil && g.isStale(ctx, slotKey, *candidate) {
		g.logger.Warn("redis.slot.stale_claim_overwritten", out.LogFields{
			"key": slotKey,
		})
		if err := g.client.Set(ctx, slotKey, claimPending, pendingTTL).Err(); err != nil {
			return false, err
		}
		return true, nil
	}

	g.logger.Info("redis.slot.taken", out.LogFields{
		"key": slotKey,
	})
	return false, domain.ErrSlotTaken
}

// isStale: ключ принадлежит записи, которой в хранилище нет среди подтвержденных.
// Захват "в процессе" устаревшим не считается.
func (g *SlotGuard) isStale(ctx context.Context, slotKey string, candidate domain.Appointment) bool {
	owner, err := g.client.Get(ctx, slotKey).Result()
	if err != nil || owner == claimPending {
		return false
	}

	appointments, err := g.next.ListAppointments(ctx, domain.ForDay(candidate.ProviderID, candidate.Date))
	if err != nil {
		return false
	}
	for _, appointment := range appointments {
		if appointment.OccupiesStart(candidate.ProviderID, candidate.Date, candidate.StartTime) {
			return false
		}
	}
	return true
}

func (g *SlotGuard) release(ctx context.Context, key string) {
	if err := g.client.Del(ctx, key).Err(); err != nil {
		g.logger.Warn("redis.slot.release_failed", out.LogFields{
			"key":   key,
			"error": err.Error(),
		})
	}
}
