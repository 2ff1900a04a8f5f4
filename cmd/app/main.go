package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/in/http"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/in/rabbitmq"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/cache"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/memory"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/recordstore"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/redis"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"github.com/suchimauz/appointment-availability-engine/internal/core/services/availability_service"
	"github.com/suchimauz/appointment-availability-engine/internal/core/services/booking_service"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с таймзоной
	mainLogger, err := logger.NewZapLogger(cfg.App.Timezone, cfg.IsLocal())
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer mainLogger.Sync()
	appLogger := mainLogger.WithModule("Main")

	appLogger.Info("app.starting", out.LogFields{
		"version":         cfg.App.Version,
		"env":             cfg.App.Env,
		"timezone":        cfg.App.Timezone,
		"storage":         cfg.Storage.Mode,
		"rabbitmqEnabled": cfg.RabbitMQ.Enabled,
		"cacheEnabled":    cfg.Cache.Enabled,
		"redisEnabled":    cfg.Redis.Enabled,
	})

	// Настройка Gin в зависимости от окружения
	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Инициализация хранилища
	var repository cache.Repository
	switch cfg.Storage.Mode {
	case config.StorageRecordStore:
		repository = recordstore.NewRecordStoreAdapter(cfg, mainLogger.WithModule("RecordStoreAdapter"))
	default:
		repository = memory.NewMemoryAdapter(mainLogger)
	}

	var schedulePort out.SchedulePort = repository
	var appointmentPort out.AppointmentPort = repository

	var cacheAdapter *cache.CacheAdapter
	if cfg.Cache.Enabled {
		cacheAdapter, err = cache.NewCacheAdapter(cfg, repository, mainLogger)
		if err != nil {
			appLogger.Error("app.cache.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}
		schedulePort = cacheAdapter
		appointmentPort = cacheAdapter
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(cfg)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// Не фатально: guard пропускает запросы к хранилищу, пока Redis недоступен
			appLogger.Warn("app.redis.ping_failed", out.LogFields{
				"addr":  cfg.Redis.Addr,
				"error": err.Error(),
			})
		}
		cancel()

		appointmentPort = redis.NewSlotGuard(cfg, appointmentPort, redisClient, mainLogger)
	}

	// Инициализация сервисов
	availabilityService := availability_service.NewAvailabilityService(
		schedulePort,
		appointmentPort,
		cfg.Location(),
		mainLogger,
	)
	bookingService := booking_service.NewBookingService(
		appointmentPort,
		availabilityService,
		mainLogger,
	)

	// Настройка HTTP сервера
	router := gin.Default()
	bookingController, err := http.NewBookingController(
		bookingService,
		cfg.Booking.ResolutionSessions,
		mainLogger.WithModule("HttpController"),
	)
	if err != nil {
		appLogger.Error("app.http.init_failed", out.LogFields{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	http.RegisterRoutes(
		router,
		cfg,
		http.NewAvailabilityController(availabilityService, mainLogger.WithModule("HttpController")),
		bookingController,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Слушатель событий нужен только для сброса кэша
	if cfg.RabbitMQ.Enabled && cacheAdapter != nil {
		listener, err := rabbitmq.NewCacheInvalidationListener(
			cacheAdapter,
			cfg,
			mainLogger.WithModule("RabbitMQListener"),
		)
		if err != nil {
			appLogger.Error("app.rabbitmq.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		if err := listener.Start(ctx); err != nil {
			appLogger.Error("app.rabbitmq.start_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		defer func() {
			if err := listener.Stop(); err != nil {
				appLogger.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	server := &nethttp.Server{
		Addr:    cfg.HTTP.Host + ":" + cfg.HTTP.Port,
		Handler: router,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info("app.http.starting", out.LogFields{
			"host": cfg.HTTP.Host,
			"port": cfg.HTTP.Port,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			appLogger.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	appLogger.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("app.http.shutdown_failed", out.LogFields{
			"error": err.Error(),
		})
	}
	cancel()

	appLogger.Info("app.shutdown.completed", out.LogFields{})
}
