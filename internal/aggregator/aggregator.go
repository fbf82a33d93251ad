package aggregator

import (
	"sync"

	"github.com/kurihiro0119/orthopairs/internal/domain"
)

// Tables is the result of one aggregation pass
type Tables struct {
	// ProteinHomologs maps a source protein to target proteins
	ProteinHomologs domain.HomologTable
	// GeneProteins maps a target gene to target proteins
	GeneProteins domain.HomologTable
}

// Aggregator defines the interface for folding ortholog records into homolog tables
type Aggregator interface {
	// Add folds one accepted record into both tables
	Add(record domain.OrthologRecord)

	// Tables returns the tables built so far. Callers must stop adding
	// records before reading them.
	Tables() Tables
}

// aggregator implements the Aggregator interface
type aggregator struct {
	mu     sync.Mutex
	tables Tables
}

// NewAggregator creates a new aggregator with empty tables
func NewAggregator() Aggregator {
	return &aggregator{
		tables: Tables{
			ProteinHomologs: domain.HomologTable{},
			GeneProteins:    domain.HomologTable{},
		},
	}
}

// Add folds one accepted record into both tables
func (a *aggregator) Add(record domain.OrthologRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	apply(a.tables.ProteinHomologs, record.TargetSpecies, record.SourceProtein, record.TargetProtein, record.Type)
	apply(a.tables.GeneProteins, record.TargetSpecies, record.TargetGene, record.TargetProtein, record.Type)
}

// Tables returns the tables built so far
func (a *aggregator) Tables() Tables {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tables
}

// apply inserts value under (tag, key). Once a key holds a least diverged
// ortholog, ordinary orthologs are dropped and only further LDOs are added.
func apply(table domain.HomologTable, tag string, key, value domain.Identifier, typ domain.OrthologType) {
	set, existed := table.Set(tag, key)
	ldo := typ == domain.OrthologTypeLeastDiverged

	switch {
	case !existed:
		set.Add(value)
		if ldo {
			set.MarkLeastDiverged()
		}
	case set.LeastDiverged():
		// An ordinary value repeating an LDO member leaves it in place, so the
		// result does not depend on record order.
		if ldo {
			set.Add(value)
		}
	case ldo:
		set.Clear()
		set.Add(value)
		set.MarkLeastDiverged()
	default:
		set.Add(value)
	}
}
