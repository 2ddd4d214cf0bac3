package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/crewplan/crewplan/internal/app"
	"github.com/crewplan/crewplan/internal/config"
	"github.com/crewplan/crewplan/internal/database"
	"github.com/crewplan/crewplan/pkg/calsync"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crewplan",
	Short: "Team calendar and consistency engine",
	Long:  "crewplan keeps team records (one-on-ones, duties, time off, birthdays) and their calendar events consistent.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApplication(configPath)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return application.Run()
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization batch across all paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildEngine()
		if err != nil {
			return err
		}
		result, err := deps.Orchestrator.SynchronizeAll(context.Background(), calsync.DefaultOrchestratorOptions())
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report inconsistencies without changing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildEngine()
		if err != nil {
			return err
		}
		report, err := deps.Validator.Validate(context.Background())
		if err != nil {
			return err
		}
		if err := printJSON(report); err != nil {
			return err
		}
		if !report.Summary.IsConsistent {
			os.Exit(1)
		}
		return nil
	},
}

var repairDryRun bool

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Apply corrective actions for detected inconsistencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildEngine()
		if err != nil {
			return err
		}
		opts := calsync.DefaultRepairOptions()
		opts.DryRun = repairDryRun
		result, err := deps.Repairer.Repair(context.Background(), opts)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config/application.yaml", "path to the configuration file")
	repairCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "preview the repair plan without applying it")
	rootCmd.AddCommand(serveCmd, syncCmd, validateCmd, repairCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildEngine wires the engine against the configured database, without the
// HTTP server.
func buildEngine() (*app.Dependencies, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	return app.BuildDependencies(db, cfg), nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
