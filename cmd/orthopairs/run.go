package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/internal/enrichment"
	"github.com/kurihiro0119/orthopairs/internal/idmapping"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
	"github.com/kurihiro0119/orthopairs/internal/release"
	"github.com/kurihiro0119/orthopairs/internal/species"
)

func runRelease(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.NewLogger(os.Stderr)
	registry, err := species.Load(cfg.SpeciesConfig)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	service := idmapping.NewClient(idmapping.Options{
		BaseURL:         cfg.IDMappingURL,
		Timeout:         cfg.HTTPTimeout,
		MinRequestDelay: cfg.MinRequestDelay,
		Logger:          logger,
		Metrics:         reg,
	})
	enricher := enrichment.NewEnricher(service, enrichment.Options{
		BatchSize:    cfg.BatchSize,
		MaxAttempts:  cfg.MaxAttempts,
		PollInterval: cfg.PollInterval,
		RetryDelay:   cfg.RetryDelay,
		Concurrency:  cfg.Concurrency,
		Logger:       logger,
		Metrics:      reg,
	})
	runner := release.NewRunner(registry, enricher, logger, reg)

	fmt.Printf("Building release %s for source species %s\n", cfg.ReleaseNumber, cfg.SourceSpecies)
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)

	run, runErr := runner.Run(cmd.Context(), release.Options{
		Release:       cfg.ReleaseNumber,
		SourceSpecies: cfg.SourceSpecies,
		PantherFiles:  cfg.PantherPaths(),
		OutputDir:     cfg.OutputDir,
		OnProgress: func(code string, batch int, progress float64) {
			if !outputJSON {
				fmt.Printf("\r  %s: %.0f%% of gene name batches done", code, progress*100)
				if progress >= 1 {
					fmt.Println()
				}
			}
		},
	})

	if cfg.MetricsFile != "" {
		if err := reg.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}

	printRun(run)
	if runErr != nil {
		return fmt.Errorf("release %s failed: %w", cfg.ReleaseNumber, runErr)
	}
	return nil
}

func printRun(run *domain.Run) {
	if run == nil {
		return
	}
	if outputJSON {
		_ = printJSON(run)
		return
	}

	fmt.Printf("\nRun %s: %s (%s)\n\n", run.ID, run.Status, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Species", "Name", "Protein Homologs", "Gene-Protein Pairs", "Accessions", "Gene Names"})
	for _, s := range run.Species {
		table.Append([]string{
			s.Code,
			s.Name,
			fmt.Sprintf("%d", s.ProteinHomologs),
			fmt.Sprintf("%d", s.GeneProteinPairs),
			fmt.Sprintf("%d", s.Accessions),
			fmt.Sprintf("%d", s.GeneNames),
		})
	}
	table.Render()
}
