package domain

import "time"

// RunStatus represents the state of a release run
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Run represents one orthopairs release run
type Run struct {
	ID            string
	Release       string
	SourceSpecies string
	Status        RunStatus
	Species       []*SpeciesSummary
	StartedAt     time.Time
	FinishedAt    time.Time
}

// SpeciesSummary records what was produced for one target species
type SpeciesSummary struct {
	Code             string
	Name             string
	ProteinHomologs  int // lines in the protein homolog file
	GeneProteinPairs int // lines in the gene-protein file
	Accessions       int // accessions submitted for gene names
	GeneNames        int // accessions resolved to a name
	Files            []string
}
