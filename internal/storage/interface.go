package storage

import (
	"context"

	"github.com/kurihiro0119/orthopairs/internal/domain"
)

// SpeciesFiles describes the mapping files available for one target species
type SpeciesFiles struct {
	Species         domain.Species `json:"species"`
	ProteinHomologs bool           `json:"protein_homologs"`
	GeneProteins    bool           `json:"gene_proteins"`
	GeneNames       bool           `json:"gene_names"`
}

// Storage is the read-only interface over the files of one release
type Storage interface {
	// Species lists the target species of the release
	Species(ctx context.Context) ([]SpeciesFiles, error)

	// ProteinHomologs returns the target proteins mapped from a source protein
	ProteinHomologs(ctx context.Context, species string, protein domain.Identifier) ([]domain.Identifier, error)

	// GeneProteins returns the target proteins associated with a target gene
	GeneProteins(ctx context.Context, species string, gene domain.Identifier) ([]domain.Identifier, error)

	// GeneName returns the primary gene name of a target accession
	GeneName(ctx context.Context, species, accession string) (string, error)

	// Connection management
	Close() error
}
