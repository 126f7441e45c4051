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

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/config"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/events"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/gateway"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/journal"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/metrics"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/mirror"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/notify"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/profile"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/provider"
	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/web"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := run(&logger); err != nil {
		logger.Error().Err(err).Msg("booking widget stopped")
		os.Exit(1)
	}
}

// run wires the widget and blocks until the server stops.
func run(log *zerolog.Logger) error {
	logger := *log

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load(os.Getenv("WIDGET_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc := cfg.Location()

	database, err := journal.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer database.Close()

	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.ClientID, cfg.ProviderTimeout())
	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		providerClient.UseRedisCache(rdb, cfg.CacheTTL())
	}
	mirrorClient := mirror.NewClient(cfg.BackendBaseURL(), cfg.BackendTimeout())

	bus := events.NewBus(func(e events.Event, err error) {
		logger.Error().Err(err).Str("event", e.Type).Str("id", e.ID).Msg("event handler failed")
	})
	bus.Subscribe(database.Handler(5*time.Second), events.BookingSucceeded, events.BookingFailed)
	defer bus.Wait()

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		notifier, err := notify.NewTelegram(cfg.Telegram.BotToken, "", cfg.Telegram.ChatID, loc, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifications disabled")
		} else {
			bus.SubscribeAsync(notifier.Handler(), events.BookingSucceeded, events.BookingFailed)
		}
	}

	srv := web.NewServer(web.Deps{
		Loader:              profile.NewLoader(providerClient, &logger),
		Submitter:           gateway.New(providerClient, mirrorClient, bus, &logger),
		Journal:             database,
		Location:            loc,
		SessionTimeout:      cfg.SessionTimeout(),
		ResetDelay:          cfg.SuccessResetDelay(),
		SubmitRatePerMinute: cfg.HTTP.SubmitRatePerMinute,
		AdminKey:            cfg.Admin.APIKey,
		Logger:              &logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	go runMaintenance(ctx, srv, database, cfg.Retention(), &logger)

	backup := journal.NewBackupService(database, journal.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		Interval:      cfg.BackupInterval(),
		Dir:           cfg.Backup.Path,
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backup.Start(ctx)

	logger.Info().
		Str("backend", cfg.Backend.Environment).
		Str("timezone", loc.String()).
		Msg("booking widget started")
	if err := srv.Run(ctx, cfg.HTTP.Port); err != nil {
		return fmt.Errorf("widget server: %w", err)
	}
	return nil
}

// runMaintenance drops idle sessions and expired journal entries.
func runMaintenance(ctx context.Context, srv *web.Server, database *journal.DB, retention time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	lastPurge := time.Time{}

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := srv.Cleanup(); n > 0 {
				logger.Debug().Int("sessions", n).Msg("expired sessions removed")
			}
			if retention <= 0 || now.Sub(lastPurge) < time.Hour {
				continue
			}
			lastPurge = now
			n, err := database.DeleteOlderThan(ctx, retention)
			if err != nil {
				logger.Error().Err(err).Msg("purge journal")
				continue
			}
			if n > 0 {
				logger.Info().Int64("entries", n).Msg("old journal entries purged")
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, database *journal.DB, rdb *redis.Client, logger *zerolog.Logger) {
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
