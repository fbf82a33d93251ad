// Package release builds the orthopairs mapping files for one release.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/orthopairs/internal/aggregator"
	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/internal/enrichment"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/mappingfile"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
	"github.com/kurihiro0119/orthopairs/internal/parser"
	"github.com/kurihiro0119/orthopairs/internal/species"
)

// Options describes one release run
type Options struct {
	Release       string
	SourceSpecies string
	PantherFiles  []string
	OutputDir     string
	// OnProgress is called after every finished enrichment batch
	OnProgress func(species string, batch int, progress float64)
}

// Runner parses the dumps, writes the homolog files and resolves gene names
type Runner struct {
	registry *species.Registry
	enricher enrichment.Enricher
	logger   *slog.Logger
	metrics  *metrics.Registry
}

// NewRunner creates a runner. logger and reg may be nil.
func NewRunner(registry *species.Registry, enricher enrichment.Enricher, logger *slog.Logger, reg *metrics.Registry) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{registry: registry, enricher: enricher, logger: logger, metrics: reg}
}

// Run executes the release. The returned Run is never nil; on error its
// status is failed and it lists the species finished before the failure.
func (r *Runner) Run(ctx context.Context, opts Options) (*domain.Run, error) {
	run := &domain.Run{
		ID:            uuid.NewString(),
		Release:       opts.Release,
		SourceSpecies: opts.SourceSpecies,
		Status:        domain.RunStatusInProgress,
		StartedAt:     time.Now(),
	}
	logger := r.logger.With("run_id", run.ID, "release", opts.Release)

	err := r.run(ctx, logger, run, opts)
	run.FinishedAt = time.Now()
	if err != nil {
		run.Status = domain.RunStatusFailed
		logger.Error("release run failed", "error", err)
		return run, err
	}
	run.Status = domain.RunStatusCompleted
	logger.Info("release run completed", "species", len(run.Species), "duration", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, run *domain.Run, opts Options) error {
	source, err := r.registry.Get(opts.SourceSpecies)
	if err != nil {
		return apperrors.NewConfigError("source species is not configured", err)
	}
	if len(opts.PantherFiles) == 0 {
		return apperrors.NewConfigError("no ortholog files given", nil)
	}

	filter := parser.Filter{SourceTag: source.PantherName, TargetTags: r.registry.TargetTags(source.Code)}
	tables, err := r.aggregate(ctx, logger, filter, opts.PantherFiles)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, target := range r.registry.Targets(source.Code) {
		summary := &domain.SpeciesSummary{Code: target.Code, Name: target.DisplayName()}
		run.Species = append(run.Species, summary)
		if err := r.buildSpecies(ctx, logger, source, target, tables, opts, summary); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) aggregate(ctx context.Context, logger *slog.Logger, filter parser.Filter, files []string) (aggregator.Tables, error) {
	agg := aggregator.NewAggregator()
	p := parser.New(filter, logger, r.metrics)

	total := parser.Stats{}
	for _, file := range files {
		stats, err := p.ParseFile(ctx, file, agg.Add)
		if err != nil {
			return aggregator.Tables{}, err
		}
		total.Add(stats)
	}
	logger.Info("aggregated ortholog records",
		"accepted", total[parser.ResultAccepted],
		"not_ortholog", total[parser.ResultNotOrtholog],
		"gene_placeholder", total[parser.ResultGenePlaceholder],
	)
	return agg.Tables(), nil
}

// buildSpecies writes the homolog and gene-protein files for target, then the
// gene-name file once every batch has been resolved.
func (r *Runner) buildSpecies(ctx context.Context, logger *slog.Logger, source, target domain.Species, tables aggregator.Tables, opts Options, summary *domain.SpeciesSummary) error {
	logger = logger.With("species", target.Code)
	homologs := tables.ProteinHomologs.Species(target.PantherName)
	genes := tables.GeneProteins.Species(target.PantherName)

	var err error
	if summary.ProteinHomologs, err = r.write(summary, opts.OutputDir, mappingfile.KindProteinHomologs, source.Code, target.Code, homologs.Pairs()); err != nil {
		return err
	}
	if summary.GeneProteinPairs, err = r.write(summary, opts.OutputDir, mappingfile.KindGeneProteins, source.Code, target.Code, genes.Pairs()); err != nil {
		return err
	}

	summary.Accessions = len(enrichment.ExtractAccessions(homologs))
	names, err := r.enricher.Enrich(ctx, target.Code, homologs, func(batch int, progress float64) {
		if opts.OnProgress != nil {
			opts.OnProgress(target.Code, batch, progress)
		}
	})
	if err != nil {
		stale := filepath.Join(opts.OutputDir, mappingfile.Name(mappingfile.KindGeneNames, source.Code, target.Code))
		if rmErr := os.Remove(stale); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("failed to remove stale gene name file", "path", stale, "error", rmErr)
		}
		return fmt.Errorf("gene names for %s: %w", target.Code, err)
	}

	if summary.GeneNames, err = r.write(summary, opts.OutputDir, mappingfile.KindGeneNames, source.Code, target.Code, names.Pairs()); err != nil {
		return err
	}
	logger.Info("species done",
		"protein_homologs", summary.ProteinHomologs,
		"gene_proteins", summary.GeneProteinPairs,
		"accessions", summary.Accessions,
		"gene_names", summary.GeneNames,
	)
	return nil
}

func (r *Runner) write(summary *domain.SpeciesSummary, dir string, kind mappingfile.Kind, source, target string, pairs []domain.Pair) (int, error) {
	path := filepath.Join(dir, mappingfile.Name(kind, source, target))
	n, err := mappingfile.Write(path, pairs)
	if err != nil {
		return 0, err
	}
	summary.Files = append(summary.Files, path)
	if r.metrics != nil {
		r.metrics.RecordLinesWritten(string(kind), n)
	}
	return n, nil
}
