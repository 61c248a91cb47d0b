package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"hr-go/internal/app"
	"hr-go/internal/config"
	"hr-go/internal/hr"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an HRApp. The returned context carries the acting
// user from --user. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "RecordAdd", "BackupCreate").
func newApp(cmd *cobra.Command, operation string) (*app.HRApp, context.Context, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := app.LoadConfig(defaults.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if actor, _ := cmd.Flags().GetString("user"); actor != "" {
		ctx = hr.WithActor(ctx, actor)
	}

	a, err := app.NewHRApp(ctx, cfg, operation)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, ctx, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:   "hr",
	Short: "Hindrance register for construction contracts",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Println("Default login: admin / " + cfg.Defaults.AdminPassword)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := app.LoadConfig(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Log Level:    %s\n", cfg.Log.Level)
		fmt.Printf("Store:        %s\n", cfg.Store.Type)
		fmt.Printf("Attachments:  %s (max %d bytes)\n", cfg.Attachments.Type, cfg.Attachments.MaxSize)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:        %s (%s)\n", v.Name, v.Type)
		}
		fmt.Printf("Audit Max:    %d\n", cfg.Audit.MaxEntries)
		fmt.Printf("Server Addr:  %s\n", cfg.Server.Addr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("user", "", "Username recorded as the actor of changes (default \"system\")")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
}
