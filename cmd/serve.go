package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srthuanan/stockhold/internal/app"
	"github.com/srthuanan/stockhold/internal/auth"
	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/config"
	"github.com/srthuanan/stockhold/internal/events"
	"github.com/srthuanan/stockhold/internal/scheduler"
	"github.com/srthuanan/stockhold/internal/storage/postgres"
	transporthttp "github.com/srthuanan/stockhold/internal/transport/http"
	"github.com/srthuanan/stockhold/migrations"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and expiry scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				log.Warn("JWT_SECRET not set, using an insecure development secret")
				cfg.JWTSecret = "stockhold-dev-secret"
			}

			startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to db: %w", err)
			}
			defer pool.Close()

			if err := pool.Ping(startupCtx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			if err := migrations.Apply(startupCtx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}

			var publisher events.Publisher = events.Nop{}
			if cfg.RedisURL != "" {
				redisOpts, err := redis.ParseURL(cfg.RedisURL)
				if err != nil {
					return fmt.Errorf("parse REDIS_URL: %w", err)
				}
				redisClient := redis.NewClient(redisOpts)
				defer func() { _ = redisClient.Close() }()
				if err := redisClient.Ping(startupCtx).Err(); err != nil {
					return fmt.Errorf("redis ping: %w", err)
				}
				publisher = events.NewRedisBroker(redisClient, events.DefaultChannel)
				log.Info("publishing change events to redis")
			}

			clk := clock.NewSystem()
			vehicleRepo := postgres.NewVehicleRepository(pool)
			consultantRepo := postgres.NewConsultantRepository(pool)

			reservationSvc := app.NewReservationService(vehicleRepo, clk,
				app.WithHoldTTL(cfg.HoldDuration),
				app.WithPublisher(publisher),
				app.WithLogger(log),
			)
			stockSvc := app.NewStockService(vehicleRepo, clk, app.WithStockPublisher(publisher))
			authSvc := auth.NewService(consultantRepo, cfg.JWTSecret, cfg.JWTExpiry, clk)

			mux := http.NewServeMux()
			mux.HandleFunc("/health", transporthttp.HealthHandler)
			mux.Handle("/login", transporthttp.HandleLogin(authSvc))
			mux.Handle("/vehicles", transporthttp.RequireAuth(authSvc, transporthttp.HandleVehicles(reservationSvc, stockSvc)))
			mux.Handle("/vehicles/", transporthttp.RequireAuth(authSvc, transporthttp.HandleVehicleByVIN(reservationSvc)))
			mux.Handle("/", transporthttp.NotFoundHandler())

			handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), log)

			server := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: handler,
			}

			stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sweeper := scheduler.New(reservationSvc, cfg.ExpiryScanInterval, log)
			go func() {
				if err := sweeper.Run(stopCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.WithError(err).Error("expiry scheduler stopped")
				}
			}()

			log.WithFields(logrus.Fields{
				"port":          cfg.Port,
				"hold_duration": cfg.HoldDuration.String(),
				"scan_interval": cfg.ExpiryScanInterval.String(),
			}).Info("api listening")

			srvErr := make(chan error, 1)
			go func() {
				srvErr <- server.ListenAndServe()
			}()

			select {
			case err := <-srvErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-stopCtx.Done():
				log.Info("shutdown signal received, stopping server")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("server shutdown error")
			}
			log.Info("server stopped")
			return nil
		},
	}
}
