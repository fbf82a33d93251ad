package enrichment

import (
	"context"

	"github.com/kurihiro0119/orthopairs/internal/domain"
)

// Enricher defines the interface for resolving accessions to gene names
type Enricher interface {
	// Enrich resolves every UniProt accession among the values of homologs
	// and returns the names found. Accessions without a primary gene name are
	// absent from the table. Any failed batch fails the whole call.
	Enrich(ctx context.Context, species string, homologs domain.SpeciesHomologs, onProgress ProgressCallback) (domain.AccessionNameTable, error)
}

// ProgressCallback is a callback function for reporting progress
type ProgressCallback func(batch int, progress float64)
