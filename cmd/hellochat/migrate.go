package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellochat/internal/config"
	"github.com/dropDatabas3/hellochat/internal/infra"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/store/pg"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones de Postgres (goose, embebidas en el binario)",
	}
	migrateCmd.PersistentFlags().StringVar(&configPath, "config", "", "ruta a app.yaml")

	sub := func(use, short string, fn func(*pg.Store, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "hellochat-cli"})
				defer func() { _ = logger.Sync() }()

				ctx := cmd.Context()
				s, err := infra.OpenPostgres(ctx, cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := fn(s, ctx); err != nil {
					return fmt.Errorf("migrate %s: %w", use, err)
				}
				return nil
			},
		}
	}

	migrateCmd.AddCommand(
		sub("up", "Aplica todas las migraciones pendientes", (*pg.Store).Migrate),
		sub("down", "Revierte la última migración", (*pg.Store).MigrateDown),
		sub("status", "Lista migraciones aplicadas y pendientes", (*pg.Store).MigrateStatus),
	)
	return migrateCmd
}
