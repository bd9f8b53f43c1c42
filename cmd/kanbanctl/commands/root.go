// Package commands implements the kanbanctl subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/listenupapp/kanban-server/internal/config"
	"github.com/listenupapp/kanban-server/internal/di/providers"
	"github.com/listenupapp/kanban-server/internal/logger"
	"github.com/listenupapp/kanban-server/internal/printer"
	"github.com/listenupapp/kanban-server/internal/store"
)

var (
	configFile    string
	envFile       string
	dataPath      string
	storageDriver string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "kanbanctl",
	Short: "Operator tool for the kanban server",
	Long: `kanbanctl works directly against a kanban server's data directory.

It provisions users, mints access tokens and inspects the stored order of a
board. It reads the same configuration as the server: flags, environment,
.env file and YAML config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "Path to .env file")
	flags.StringVar(&dataPath, "data-path", "", "Server data directory (default: from config)")
	flags.StringVar(&storageDriver, "storage-driver", "", "Position store backend: sqlite or badger")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log store activity")
}

// env is what a subcommand works with.
type env struct {
	cfg   *config.Config
	log   *logger.Logger
	store store.Store
}

func (e *env) Close() error {
	return e.store.Close()
}

// loadConfig resolves configuration the same way the server does, with the
// persistent flags taking precedence.
func loadConfig() (*config.Config, error) {
	args := []string{"--env-file", envFile}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	if dataPath != "" {
		args = append(args, "--data-path", dataPath)
	}
	if storageDriver != "" {
		args = append(args, "--storage-driver", storageDriver)
	}
	return config.Load(args)
}

// openEnv loads configuration and opens the store. The caller must Close it.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, printer.Error("Invalid configuration", err.Error(),
			"Check --config, --data-path and the environment")
	}

	log := quietLogger()
	if verbose {
		log = logger.New(logger.Config{
			Level:       slog.LevelDebug,
			Environment: cfg.App.Environment,
			Writer:      cmd.ErrOrStderr(),
		})
	}

	st, path, err := providers.OpenStore(cfg.Storage, log)
	if err != nil {
		return nil, printer.Error("Cannot open the store", err.Error(),
			"Stop the server if it holds the database lock",
			"Pass --data-path pointing at the server's data directory")
	}
	log.Debug("store opened", "driver", cfg.Storage.Driver, "path", path)

	return &env{cfg: cfg, log: log, store: st}, nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: slog.LevelError, Writer: io.Discard})
}
