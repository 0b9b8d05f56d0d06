// ADR Core - adiabatic demagnetisation refrigerator controller
//
// This is the main entry point for the ADR controller core. It runs one
// controller per configured ADR unit, reaching the unit's instruments
// through instrument services on the MQTT bus, and serves the control
// API for operators.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C and SIGTERM so every controller shuts its supply
	// loop down before exit.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd builds the adrcore command tree.
func newRootCmd() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:   "adrcore",
		Short: "Controller core for adiabatic demagnetisation refrigerators.",
		Long: `adrcore runs the magnet cycle of one or more ADR units, ` +
			`records their temperatures and serves the control API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadDotEnv(".env")
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"configuration file (default $ADR_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newRunCmd(&configFlag),
		newCheckConfigCmd(&configFlag),
		newTokenCmd(&configFlag),
		newVersionCmd(),
	)
	return root
}

// loadDotEnv loads environment variables from path. A missing file is not
// an error; variables already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// getConfigPath returns the configuration file path: the --config flag,
// then the ADR_CONFIG environment variable, then the default.
func getConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("ADR_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
