// cmd/mock-backend/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/database"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/mockbackend"
)

func main() {
	var (
		addr     string
		allow    []string
		deny     []string
		latency  time.Duration
		logLevel string
		dbURL    string
	)

	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Serve the corporation number and profile details endpoints locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			zapLog := logger.New(logLevel, "console")
			defer zapLog.Sync()

			var store mockbackend.ProfileStore
			if dbURL != "" {
				pg, err := database.NewPostgres(cmd.Context(), config.PostgresConfig{URL: dbURL, MaxConnections: 5})
				if err != nil {
					return err
				}
				defer pg.Close()
				if store, err = mockbackend.NewPostgresStore(cmd.Context(), pg.DB); err != nil {
					return err
				}
				zapLog.Info("Storing profiles in Postgres")
			}

			backend := mockbackend.New(mockbackend.Options{
				AllowList: allow,
				DenyList:  deny,
				Latency:   latency,
				Store:     store,
				Logger:    logger.NewZapAdapter(zapLog),
			})

			server := &http.Server{
				Addr:              addr,
				Handler:           backend.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				zapLog.Info("Mock backend listening", zap.String("address", addr), zap.Strings("allow", allow))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8081", "listen address")
	cmd.Flags().StringSliceVar(&allow, "allow", []string{"123456789"}, "corporation numbers that are always valid")
	cmd.Flags().StringSliceVar(&deny, "deny", nil, "corporation numbers that are always invalid")
	cmd.Flags().DurationVar(&latency, "latency", 0, "delay added to every corporation number answer")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	cmd.Flags().StringVar(&dbURL, "database-url", os.Getenv("MOCK_BACKEND_DATABASE_URL"), "Postgres URL for received profiles (default: in memory)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
