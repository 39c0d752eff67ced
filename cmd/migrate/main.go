package main

import (
	"fmt"
	"os"

	"catalog-admin/internal/config"
	"catalog-admin/internal/database"
	"catalog-admin/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrationsDir string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the catalog database schema",
	Long:          `Apply and inspect the goose migrations of the catalog database using the DB_* environment settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:     "up",
	Short:   "Apply all pending migrations",
	Example: `  migrate up --dir ./migrations`,
	RunE:    runUp,
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of every migration",
	RunE:  runStatus,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE:  runVersion,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	rootCmd.AddCommand(upCmd, statusCmd, versionCmd)
}

func connect() (database.Service, *config.Config, error) {
	cfg := config.Load()
	if migrationsDir == "" {
		migrationsDir = cfg.Database.MigrationsDir
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return dbService, cfg, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	dbService, cfg, err := connect()
	if err != nil {
		return err
	}
	defer dbService.Close()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	return database.RunMigrations(dbService.DB(), migrationsDir, log.With(zap.String("command", "up")))
}

func runStatus(cmd *cobra.Command, args []string) error {
	dbService, _, err := connect()
	if err != nil {
		return err
	}
	defer dbService.Close()

	return database.MigrationStatus(dbService.DB(), migrationsDir)
}

func runVersion(cmd *cobra.Command, args []string) error {
	dbService, _, err := connect()
	if err != nil {
		return err
	}
	defer dbService.Close()

	version, err := database.SchemaVersion(dbService.DB())
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), version)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
