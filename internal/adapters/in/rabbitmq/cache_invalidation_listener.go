package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
)

const (
	setupAttempts   = 3
	setupRetryDelay = 500 * time.Millisecond
)

// CacheInvalidationListener слушает события изменений в хранилище и сбрасывает кэш сотрудника
type CacheInvalidationListener struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	cache      out.CachePort
	cfg        *config.Config
	logger     out.LoggerPort
	consumerWg sync.WaitGroup
	closeOnce  sync.Once
}

func NewCacheInvalidationListener(cache out.CachePort, cfg *config.Config, logger out.LoggerPort) (*CacheInvalidationListener, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("rabbitmq.connect.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("rabbitmq.channel.failed", out.LogFields{
			"error": err.Error(),
		})
		return nil, err
	}

	return newCacheInvalidationListener(conn, channel, cache, cfg, logger), nil
}

func newCacheInvalidationListener(conn *amqp.Connection, channel *amqp.Channel, cache out.CachePort, cfg *config.Config, logger out.LoggerPort) *CacheInvalidationListener {
	return &CacheInvalidationListener{
		conn:    conn,
		channel: channel,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

func (l *CacheInvalidationListener) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	exchangeName := l.cfg.RabbitMQ.Exchange
	err := l.retry("exchange_declare", func() error {
		return l.channel.ExchangeDeclare(
			exchangeName, // имя обменника
			"topic",      // тип обменника
			true,         // durable
			false,        // auto-delete
			false,        // internal
			false,        // no-wait
			nil,          // аргументы
		)
	})
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}

	var queue amqp.Queue
	err = l.retry("queue_declare", func() error {
		var err error
		queue, err = l.channel.QueueDeclare(
			l.cfg.RabbitMQ.Queue,
			true,  // durable
			true,  // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", l.cfg.RabbitMQ.Queue, err)
	}

	bindingKey := l.cfg.RabbitMQ.Bind
	err = l.retry("queue_bind", func() error {
		return l.channel.QueueBind(queue.Name, bindingKey, exchangeName, false, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue.Name, err)
	}

	var msgs <-chan amqp.Delivery
	consumerID := fmt.Sprintf("consumer-%s-%d", queue.Name, time.Now().UnixNano())
	err = l.retry("consume", func() error {
		var err error
		msgs, err = l.channel.Consume(
			queue.Name,
			consumerID,
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,   // args
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to consume from queue %s: %w", queue.Name, err)
	}

	l.logger.Info("rabbitmq.queue.started", out.LogFields{
		"queue":    queue.Name,
		"binding":  bindingKey,
		"exchange": exchangeName,
	})

	l.consumerWg.Add(1)
	go l.consume(ctx, queue.Name, consumerID, msgs)

	return nil
}

func (l *CacheInvalidationListener) consume(ctx context.Context, queueName, consumerID string, msgs <-chan amqp.Delivery) {
	defer l.consumerWg.Done()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("rabbitmq.consumer.stopping_by_context", out.LogFields{
				"queue":      queueName,
				"consumerID": consumerID,
			})
			return
		case msg, ok := <-msgs:
			if !ok {
				l.logger.Warn("rabbitmq.consumer.channel_closed", out.LogFields{
					"queue":      queueName,
					"consumerID": consumerID,
				})
				// Без событий кэш может отстать от хранилища
				l.cache.InvalidateAll(ctx)
				return
			}

			if err := l.HandleRoutingKey(ctx, msg.RoutingKey); err != nil {
				l.logger.Error("rabbitmq.process_message.failed", out.LogFields{
					"routingKey": msg.RoutingKey,
					"messageId":  msg.MessageId,
					"error":      err.Error(),
				})
				// Битый ключ не станет валидным при повторе, в очередь не возвращаем
				if err := msg.Nack(false, false); err != nil {
					l.logger.Error("rabbitmq.message.nack_failed", out.LogFields{
						"error": err.Error(),
					})
				}
				continue
			}

			if err := msg.Ack(false); err != nil {
				l.logger.Error("rabbitmq.message.ack_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}
	}
}

// HandleRoutingKey сбрасывает кэш по ключу события. Содержимое сообщения не используется.
func (l *CacheInvalidationListener) HandleRoutingKey(ctx context.Context, routingKey string) error {
	key, err := ParseRoutingKey(routingKey)
	if err != nil {
		return err
	}

	if key.Action != EventActionStore && key.Action != EventActionInvalidate {
		l.logger.Debug("rabbitmq.message.skipped", out.LogFields{
			"routingKey": routingKey,
			"action":     key.Action,
		})
		return nil
	}

	switch key.ResourceType {
	case EventResourceTypeAll:
		l.cache.InvalidateAll(ctx)
	case EventResourceTypeScheduleRule:
		l.cache.InvalidateScheduleRules(ctx, key.ProviderID)
	case EventResourceTypeAppointment:
		l.cache.InvalidateAppointments(ctx, key.ProviderID)
	default:
		l.logger.Debug("rabbitmq.message.skipped", out.LogFields{
			"routingKey":   routingKey,
			"resourceType": key.ResourceType,
		})
		return nil
	}

	l.logger.Info("rabbitmq.cache.invalidated", out.LogFields{
		"resourceType": key.ResourceType,
		"providerId":   key.ProviderID,
		"source":       key.Source,
	})
	return nil
}

func (l *CacheInvalidationListener) Stop() error {
	if l == nil || l.channel == nil {
		return nil
	}

	var err error
	l.closeOnce.Do(func() {
		if closeErr := l.channel.Close(); closeErr != nil {
			err = closeErr
		}
		if closeErr := l.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	l.consumerWg.Wait()
	return err
}

func (l *CacheInvalidationListener) retry(operation string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= setupAttempts; attempt++ {
		if err = fn(); err == nil {
			l.logger.Info("rabbitmq."+operation+".success", out.LogFields{})
			return nil
		}

		l.logger.Warn("rabbitmq."+operation+".retry", out.LogFields{
			"attempt": attempt,
			"error":   err.Error(),
		})
		if attempt < setupAttempts {
			time.Sleep(setupRetryDelay)
		}
	}
	return err
}
