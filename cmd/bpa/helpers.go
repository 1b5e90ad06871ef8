package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bpa/internal/config"
	"bpa/internal/logging"
	"bpa/internal/registry"
	"bpa/internal/storage"
)

// newLogger builds a logger matching the output format: JSON output gets
// JSON logs so both streams stay machine-readable
func newLogger(format string) *logging.Logger {
	logFormat := "human"
	if format == "json" {
		logFormat = "json"
	}
	return logging.NewLogger(logging.Config{
		Format: logging.Format(logFormat),
		Level:  "info",
	})
}

// mustGetWorkspaceRoot returns the current directory or exits
func mustGetWorkspaceRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving working directory: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// loadWorkspace loads the config and registry for the workspace root. A
// relative registry path resolves against the workspace root.
func loadWorkspace(root string) (*config.Config, *registry.Registry, error) {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, nil, err
	}

	registryPath := cfg.RegistryPath
	if registryPath != "" && !filepath.IsAbs(registryPath) {
		registryPath = filepath.Join(root, registryPath)
	}
	reg, err := registry.Load(registryPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}

// openProject opens the workspace database and resolves the --project flag
func openProject(root string, logger *logging.Logger) (*storage.DB, *storage.Project, error) {
	db, err := storage.Open(root, logger)
	if err != nil {
		return nil, nil, err
	}
	project, err := db.EnsureProject(projectFlag)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, project, nil
}

// buildCorpus assembles the evaluation corpus from document files plus an
// optional inline text, separated by file markers the extractor skips
func buildCorpus(files []string, text string) (string, error) {
	var parts []string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read document %s: %w", file, err)
		}
		parts = append(parts, fmt.Sprintf("--- ARQUIVO: %s ---", filepath.Base(file)))
		parts = append(parts, string(data))
	}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

// fail prints an error and exits non-zero
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
