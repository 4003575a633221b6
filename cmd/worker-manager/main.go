// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"onboarding-workers/internal/common/aws"
	"onboarding-workers/internal/common/camunda"
	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/database"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/observability"
	"onboarding-workers/internal/onboarding/corporation"
	"onboarding-workers/internal/onboarding/profile"
	"onboarding-workers/pkg/registry"

	spd "onboarding-workers/internal/workers/onboarding/save-profile-details"
	vus "onboarding-workers/internal/workers/onboarding/validate-user-step"
)

// onboardingWorker is what every handler in this binary exposes.
type onboardingWorker interface {
	camunda.JobHandler
	GetTaskType() string
	IsEnabled() bool
	Activity() registry.Activity
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	if err := cfg.RequireCamunda(); err != nil {
		bootLog.Fatal("invalid camunda config", zap.Error(err))
	}

	var outputs []string
	if cfg.Logging.Output != "" {
		outputs = append(outputs, cfg.Logging.Output)
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, outputs...)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, log)

	// --- Corporation lookup cache ---
	cache, redisClient := buildCache(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- Backend clients ---
	apiTimeout := config.GetDuration(cfg.API.Timeout)
	checker := corporation.NewClient(
		corporation.Config{BaseURL: cfg.API.BaseURL, Timeout: apiTimeout},
		corporation.Dependencies{Cache: cache, Logger: log},
	)
	saver, err := profile.NewClient(
		profile.Config{BaseURL: cfg.API.BaseURL, Timeout: apiTimeout},
		profile.Dependencies{Logger: log},
	)
	if err != nil {
		zapLog.Fatal("profile client init failed", zap.Error(err))
	}

	var sms spd.SMSSender
	if smsCfg := cfg.Notifications.SMS; smsCfg.Enabled {
		sender, err := aws.NewSMSSender(ctx, smsCfg.Region, smsCfg.SenderID)
		if err != nil {
			zapLog.Warn("SMS sender unavailable, confirmations disabled", zap.Error(err))
		} else {
			sms = sender
		}
	}

	// --- Zeebe ---
	camundaClient, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		Logger:                 log,
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	validateHandler, err := vus.NewHandler(vus.HandlerOptions{
		AppConfig:     cfg,
		Checker:       checker,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create validate-user-step handler", zap.Error(err))
	}
	saveHandler, err := spd.NewHandler(spd.HandlerOptions{
		AppConfig:     cfg,
		Saver:         saver,
		SMS:           sms,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create save-profile-details handler", zap.Error(err))
	}

	reg := registry.New(cfg.App.Version)
	var running []*camunda.CamundaWorker
	for key, h := range map[string]onboardingWorker{
		vus.ConfigKey: validateHandler,
		spd.ConfigKey: saveHandler,
	} {
		if err := reg.Upsert(h.Activity()); err != nil {
			zapLog.Fatal("invalid activity", zap.String("taskType", h.GetTaskType()), zap.Error(err))
		}
		if !h.IsEnabled() {
			zapLog.Info("worker disabled", zap.String("taskType", h.GetTaskType()))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, key)
		running = append(running, camunda.NewWorker(
			camundaClient.GetClient(),
			h.GetTaskType(),
			camunda.WorkerOptions{MaxJobsActive: wcfg.MaxJobsActive, Timeout: config.GetDuration(wcfg.Timeout)},
			h,
			log,
		))
	}

	for _, a := range reg.Activities {
		zapLog.Info("activity registered",
			zap.String("id", a.ID),
			zap.String("taskType", a.TaskType),
			zap.String("timeout", a.Timeout),
			zap.Strings("errorCodes", a.ErrorCodes),
		)
	}
	if cfg.Registry.Path != "" {
		if err := reg.Save(cfg.Registry.Path); err != nil {
			zapLog.Warn("failed to write activity registry", zap.String("path", cfg.Registry.Path), zap.Error(err))
		}
	}
	zapLog.Info("Workers registered", zap.Int("running", len(running)))

	// --- Health & Metrics Server ---
	var server *http.Server
	if cfg.Metrics.Enabled {
		server = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           healthRouter(camundaClient, redisClient),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range running {
		w.Stop()
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping metrics server", zap.Error(err))
		}
	}
	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down telemetry", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped gracefully")
}

// buildCache picks the lookup cache backend. A Redis connection failure falls back to memory.
func buildCache(ctx context.Context, cfg *config.Config, log logger.Logger) (corporation.Cache, *database.RedisClient) {
	ttl := config.GetDuration(cfg.Lookup.CacheTTL)

	switch cfg.Lookup.CacheBackend {
	case "none":
		return nil, nil
	case "redis":
		client, err := database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using in-memory lookup cache", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
				"error":   err.Error(),
			})
			return corporation.NewMemoryCache(ttl), nil
		}
		log.Info("Redis connected successfully", map[string]interface{}{"address": cfg.Database.Redis.Address})
		return corporation.NewRedisCache(client.Client, ttl), client
	default:
		return corporation.NewMemoryCache(ttl), nil
	}
}

func healthRouter(camundaClient *camunda.Client, redisClient *database.RedisClient) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := camundaClient.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
