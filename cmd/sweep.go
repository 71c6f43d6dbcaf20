package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/srthuanan/stockhold/internal/app"
	"github.com/srthuanan/stockhold/internal/clock"
	"github.com/srthuanan/stockhold/internal/config"
	"github.com/srthuanan/stockhold/internal/storage/postgres"
	"github.com/srthuanan/stockhold/migrations"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single expiry pass over lapsed holds and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to db: %w", err)
			}
			defer pool.Close()

			if err := migrations.Apply(ctx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}

			svc := app.NewReservationService(postgres.NewVehicleRepository(pool), clock.NewSystem())
			expired, err := svc.ExpireDue(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("expired %d hold(s)\n", len(expired))
			for _, vin := range expired {
				fmt.Println(vin)
			}
			return nil
		},
	}
}
