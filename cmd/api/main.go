package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/orthopairs/internal/api"
	"github.com/kurihiro0119/orthopairs/internal/config"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
	"github.com/kurihiro0119/orthopairs/internal/species"
	"github.com/kurihiro0119/orthopairs/internal/storage/filesystem"
)

func main() {
	envFile := flag.String("config", "", "env file to load (default is .env)")
	flag.Parse()

	// Load configuration
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	registry, err := species.Load(cfg.SpeciesConfig)
	if err != nil {
		logger.Error("failed to load species", "path", cfg.SpeciesConfig, "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := filesystem.NewFileStorage(cfg.OutputDir, cfg.SourceSpecies, registry)
	if err != nil {
		logger.Error("failed to open release", "dir", cfg.OutputDir, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	handler := api.NewHandler(store, cfg.ReleaseNumber)
	router := api.SetupRoutes(handler, metrics.NewRegistry(), logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("starting API server", "addr", addr, "release", cfg.ReleaseNumber, "dir", cfg.OutputDir)

	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
