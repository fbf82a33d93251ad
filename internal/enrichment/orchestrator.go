package enrichment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/internal/idmapping"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
)

// Options configures an orchestrator
type Options struct {
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
	RetryDelay   time.Duration
	// Concurrency is the number of batches in flight. Values below 2 run
	// batches one after another.
	Concurrency int
	Logger      *slog.Logger
	Metrics     *metrics.Registry
}

// orchestrator implements Enricher on top of a JobClient
type orchestrator struct {
	jobs        *JobClient
	batchSize   int
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Registry
}

// NewEnricher creates an enricher backed by service
func NewEnricher(service idmapping.Service, opts Options) Enricher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &orchestrator{
		jobs:        NewJobClient(service, opts.MaxAttempts, opts.PollInterval, opts.RetryDelay, logger, opts.Metrics),
		batchSize:   opts.BatchSize,
		concurrency: max(opts.Concurrency, 1),
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// Enrich extracts, partitions and resolves the accessions of homologs
func (o *orchestrator) Enrich(ctx context.Context, species string, homologs domain.SpeciesHomologs, onProgress ProgressCallback) (domain.AccessionNameTable, error) {
	accessions := ExtractAccessions(homologs)
	batches, err := Partition(accessions, o.batchSize)
	if err != nil {
		return nil, err
	}
	o.logger.Info("resolving gene names", "species", species, "accessions", len(accessions), "batches", len(batches))

	table := domain.AccessionNameTable{}
	if len(batches) == 0 {
		return table, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		done     int
	)
	semaphore := make(chan struct{}, o.concurrency)

	for _, batch := range batches {
		semaphore <- struct{}{}
		mu.Lock()
		stop := firstErr != nil
		mu.Unlock()
		if stop {
			<-semaphore
			break
		}

		wg.Add(1)
		go func(b domain.IdentifierBatch) {
			defer wg.Done()
			defer func() { <-semaphore }()

			job := &domain.EnrichmentJob{Ref: uuid.NewString(), Batch: b}
			result, err := o.jobs.Run(ctx, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("species %s: %w", species, err)
					cancel()
				}
				return
			}
			table.Merge(result)
			done++
			if onProgress != nil {
				onProgress(b.Index, float64(done)/float64(len(batches)))
			}
		}(batch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if o.metrics != nil {
		o.metrics.RecordGeneNames(species, len(table))
	}
	o.logger.Info("resolved gene names", "species", species, "names", len(table), "unresolved", len(accessions)-len(table))
	return table, nil
}
