// Package cli defines the cobra command tree for the property intelligence
// server and its maintenance commands.
package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"propintel/server/config"
	"propintel/server/internal/database"
	"propintel/server/internal/intelligence"
	"propintel/server/internal/market"
	"propintel/server/internal/telegram"
)

var (
	flagEnvFile string
	flagDB      string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "propintel",
		Short:         "Property scoring and market comparison engine",
		Long:          "Scores property listings against their comparables and serves the results over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "optional env file loaded before the environment")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(
		newServeCmd(),
		newMarketCmd(),
		newScoreCmd(),
		newUpdateCmd(),
		newUpdateAllCmd(),
		newRecalculateScoresCmd(),
		newProximityCmd(),
		newStatsCmd(),
		newPOICmd(),
	)

	return root
}

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *database.Database
	svc    *intelligence.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(flagEnvFile)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = flagDB
	}
	return cfg, nil
}

// openApp loads configuration, opens and migrates the database and wires the
// intelligence service. Logs go to logOutput.
func openApp(logOutput io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log, logOutput)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	params := market.Params{
		AverageFloor: cfg.Market.AverageFloor,
		FloorStep:    cfg.Market.FloorStep,
	}
	svc := intelligence.NewService(db, params, logger)
	if cfg.Telegram.Enabled {
		svc.SetNotifier(telegram.NewService(cfg.Telegram, logger))
	}

	return &app{cfg: cfg, logger: logger, db: db, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid property ID: %s", arg)
	}
	return id, nil
}
