package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cartCmd "github.com/Alturino/commercesync/cart/cmd"
	"github.com/Alturino/commercesync/internal/common/constants"
	"github.com/Alturino/commercesync/internal/log"
	productCmd "github.com/Alturino/commercesync/product/cmd"
	syncCmd "github.com/Alturino/commercesync/sync/cmd"
)

func Start() {
	// services replace this logger once their config is loaded
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str(log.KeyAppName, constants.AppMainCommerce).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: constants.AppMainCommerce}
	commands := []*cobra.Command{
		{
			Use:   "sync",
			Short: "Run commerce sync service",
			Run: func(cmd *cobra.Command, args []string) {
				syncCmd.RunSyncService(cmd.Context())
			},
		},
		{
			Use:   "cart",
			Short: "Run cart service",
			Run: func(cmd *cobra.Command, args []string) {
				cartCmd.RunCartService(cmd.Context())
			},
		},
		{
			Use:   "product",
			Short: "Run product catalog service",
			Run: func(cmd *cobra.Command, args []string) {
				productCmd.RunProductService(cmd.Context())
			},
		},
		{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigration(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
