package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staffroom/internal/api"
	"staffroom/internal/cache"
	"staffroom/internal/config"
	"staffroom/internal/db"
	"staffroom/internal/events"
	"staffroom/internal/metrics"
	"staffroom/internal/reminders"
	"staffroom/internal/service"
	"staffroom/internal/slots"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("PORTAL_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	database, err := db.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	var rdb *redis.Client
	var sheets *cache.DaySheetCache
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		sheets = cache.New(rdb, cfg.CacheTTL())
	}

	bus := events.NewBus()
	if sheets != nil {
		// Any booking change invalidates that room's cached day sheet.
		invalidate := func(e events.Event) {
			ctxInv, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			sheets.Invalidate(ctxInv, e.RoomID, e.Day)
		}
		bus.Subscribe(events.TopicBookingCreated, invalidate)
		bus.Subscribe(events.TopicBookingCanceled, invalidate)
	}
	bus.Subscribe(events.TopicBookingReminder, func(e events.Event) {
		logger.Info().
			Int64("user_id", e.UserID).
			Int64("room_id", e.RoomID).
			Str("reference", e.Reference).
			Msg("meeting starting soon")
	})

	schedule := service.Schedule{
		Window:       slots.Window{Start: cfg.OfficeStart(), End: cfg.OfficeEnd()},
		SlotDuration: cfg.SlotDuration(),
		Policy:       slots.Policy{RequireContiguous: cfg.Office.RequireContiguous},
	}
	bookingSvc := service.NewBookingService(database, sheets, bus, schedule, logger)
	attendanceSvc := service.NewAttendanceService(database, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backup := db.NewBackupService(cfg.Database.Path, cfg.Backup.StoragePath,
			cfg.BackupInterval(), cfg.Backup.RetentionDays, logger)
		go backup.Start(ctx)
	}

	if cfg.Reminders.Enabled {
		sched := reminders.NewScheduler(database, bus,
			cfg.ReminderLead(), cfg.ReminderScanInterval(), logger)
		go sched.Start(ctx)
	}

	server := api.NewHTTPServer(bookingSvc, attendanceSvc, database,
		cfg.Server.APIKey, cfg.Server.RateLimit, cfg.Server.RateBurst, logger)

	logger.Info().Int("port", cfg.Server.Port).Msg("portal started")
	if err := server.ListenAndServe(ctx, cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, database *db.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
