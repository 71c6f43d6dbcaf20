package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/srthuanan/stockhold/internal/auth"
	"github.com/srthuanan/stockhold/internal/config"
	"github.com/srthuanan/stockhold/internal/domain"
	"github.com/srthuanan/stockhold/internal/storage/postgres"
	"github.com/srthuanan/stockhold/migrations"
)

func newConsultantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consultant",
		Short: "Manage consultant logins",
	}
	cmd.AddCommand(newConsultantCreateCmd())
	return cmd
}

func newConsultantCreateCmd() *cobra.Command {
	var (
		username string
		password string
		role     string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a consultant or admin login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			r := domain.Role(role)
			if r != domain.RoleConsultant && r != domain.RoleAdmin {
				return fmt.Errorf("invalid --role %q (want consultant or admin)", role)
			}

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

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			repo := postgres.NewConsultantRepository(pool)
			if err := repo.CreateConsultant(ctx, domain.Consultant{
				Username:     username,
				PasswordHash: hash,
				Role:         r,
			}); err != nil {
				return err
			}

			fmt.Printf("created %s %q\n", role, username)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "login name")
	c.Flags().StringVar(&password, "password", "", "login password")
	c.Flags().StringVar(&role, "role", string(domain.RoleConsultant), "consultant or admin")
	return c
}
