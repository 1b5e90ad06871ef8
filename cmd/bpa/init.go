package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bpa/internal/config"
	"bpa/internal/errors"
	"bpa/internal/logging"
	"bpa/internal/registry"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize bpa configuration",
	Long:  "Creates a .bpa/ directory with default configuration in the current workspace",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .bpa directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: "human",
		Level:  "info",
	})

	cwd, err := os.Getwd()
	if err != nil {
		return errors.New(errors.InternalError, "Failed to get current directory", err)
	}

	bpaDir := filepath.Join(cwd, ".bpa")
	if _, statErr := os.Stat(bpaDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("bpa already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(bpaDir, "config.json"))
			fmt.Println("\nRun 'bpa init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(bpaDir); removeErr != nil {
			return errors.New(errors.InternalError, "Failed to remove existing .bpa directory", removeErr)
		}
		logger.Info("Removed existing .bpa directory", nil)
	}

	// A local registry copy lets workspaces adjust criteria without rebuilds
	cfg := config.DefaultConfig()
	cfg.RegistryPath = filepath.Join(".bpa", "registry.yaml")
	if err := cfg.Save(cwd); err != nil {
		return errors.New(errors.InternalError, "Failed to write config file", err)
	}
	registryPath := filepath.Join(bpaDir, "registry.yaml")
	if err := os.WriteFile(registryPath, registry.DefaultYAML(), 0644); err != nil {
		return errors.New(errors.InternalError, "Failed to write registry artifact", err)
	}

	configPath := filepath.Join(bpaDir, "config.json")
	logger.Info("bpa initialized successfully", map[string]interface{}{
		"config_path": configPath,
	})

	fmt.Println("bpa initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'bpa registry show' to inspect the validation matrix")
	fmt.Println("  2. Run 'bpa diagnose --file plano.txt' to evaluate a business plan")
	return nil
}
