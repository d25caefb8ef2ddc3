package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/config"
	"github.com/jikku/coffeehouse/internal/logging"
)

const Version = "v0.3.0"

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "coffeehouse",
	Short: "Coffeehouse storefront web server",
	Long: `Coffeehouse serves the storefront site: the homepage, store and
about pages, and the drinks menu.

Settings come from an optional YAML file (--config), a .env file and
COFFEEHOUSE_* environment variables. Running without a command starts
the server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Coffeehouse %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
		fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = "coffeehouse.yaml"
		}
		if err := initCommand(config.ExpandPath(path)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Settings written to %s\n", path)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a settings file without applying the environment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = "coffeehouse.yaml"
		}
		cfg, err := checkCommand(config.ExpandPath(path))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (env %s, database %s)\n", path, cfg.Server.Env, cfg.Database.Engine)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML settings file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Quiet mode (errors only)")

	serveCmd.Flags().StringVar(&portFlag, "port", "", "Server port (overrides settings)")
	serveCmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path (overrides settings)")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd, routesCmd, visitsCmd, initCmd, checkCmd, versionCmd)
}

// initCommand writes the default settings to path, refusing to overwrite
func initCommand(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("settings file already exists at %s", path)
	}
	return config.SaveToFile(config.CreateDefaultConfig(), path)
}

// checkCommand reads the settings file at path on top of the defaults and validates it
func checkCommand(path string) (*config.Config, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return cfg, nil
}

// loadConfig loads settings and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	if dbFlag != "" {
		cfg.Database.Engine = config.EngineSQLite
		cfg.Database.Path = dbFlag
	}
	if quiet {
		cfg.Log.Level = "error"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg, verbose && !quiet)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
