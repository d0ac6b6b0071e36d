package cmd

import (
	"context"
	"fmt"

	"github.com/Alturino/commercesync/internal/common/constants"
	"github.com/Alturino/commercesync/internal/config"
	"github.com/Alturino/commercesync/internal/infra"
	"github.com/Alturino/commercesync/internal/log"
)

// runMigration applies pending migrations and exits.
func runMigration(c context.Context) error {
	cfg := config.InitConfig(c, constants.AppMigration)

	logger := log.InitLogger(cfg.Application.LogPath, cfg.Application.Env).
		With().
		Str(log.KeyAppName, constants.AppMigration).
		Str(log.KeyTag, "main runMigration").
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "connecting to database").Logger()
	logger.Info().Msg("connecting to database")
	pool, err := infra.NewPool(c, infra.PostgresURL(cfg.Database), cfg.Database.MaxConnections, cfg.Database.MinConnections)
	if err != nil {
		err = fmt.Errorf("failed connecting to database with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if err = infra.Migrate(c, pool, cfg.Database.MigrationPath); err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("migrated database")
	return nil
}
