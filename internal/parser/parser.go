package parser

import (
	"fmt"
	"strings"

	"github.com/kurihiro0119/orthopairs/internal/domain"
)

// Result classifies what happened to one dump line
type Result string

const (
	ResultAccepted        Result = "accepted"
	ResultBlank           Result = "blank"
	ResultOtherSource     Result = "other_source"
	ResultOtherTarget     Result = "other_target"
	ResultGenePlaceholder Result = "gene_placeholder"
	ResultNotOrtholog     Result = "not_ortholog"
)

// Filter selects the records of interest
type Filter struct {
	SourceTag  string              // PANTHER tag of the source species, e.g. "HUMAN"
	TargetTags map[string]struct{} // PANTHER tags of the target species
}

// speciesField is one parsed SPECIES|GENE=id|PROTEIN=id column.
type speciesField struct {
	tag     string
	gene    domain.Identifier
	protein domain.Identifier
}

// ParseLine turns one dump line into a record. The returned error is only set
// for malformed lines; out-of-scope lines come back with a non-accepted Result.
//
// Sample line:
//
//	HUMAN|HGNC=10663|UniProtKB=O60524	MOUSE|MGI=MGI=1918305|UniProtKB=Q8CCP0	LDO	Euarchontoglires	PTHR15239
func ParseLine(line string, f Filter) (domain.OrthologRecord, Result, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return domain.OrthologRecord{}, ResultBlank, nil
	}

	columns := strings.Split(line, "\t")
	if len(columns) < 3 {
		return domain.OrthologRecord{}, "", fmt.Errorf("expected at least 3 tab-separated fields, got %d", len(columns))
	}

	source, err := parseSpeciesField(columns[0])
	if err != nil {
		return domain.OrthologRecord{}, "", fmt.Errorf("source field: %w", err)
	}
	target, err := parseSpeciesField(columns[1])
	if err != nil {
		return domain.OrthologRecord{}, "", fmt.Errorf("target field: %w", err)
	}
	orthologType := domain.ParseOrthologType(columns[2])

	record := domain.OrthologRecord{
		SourceSpecies: source.tag,
		SourceGene:    source.gene,
		SourceProtein: source.protein,
		TargetSpecies: target.tag,
		TargetGene:    target.gene,
		TargetProtein: target.protein,
		Type:          orthologType,
	}

	switch {
	case source.tag != f.SourceTag:
		return record, ResultOtherSource, nil
	case !hasTag(f.TargetTags, target.tag):
		return record, ResultOtherTarget, nil
	case source.gene.IsPlaceholder() || target.gene.IsPlaceholder():
		return record, ResultGenePlaceholder, nil
	case !orthologType.IsAccepted():
		return record, ResultNotOrtholog, nil
	}
	return record, ResultAccepted, nil
}

func parseSpeciesField(raw string) (speciesField, error) {
	segments := strings.Split(raw, "|")
	if len(segments) != 3 {
		return speciesField{}, fmt.Errorf("%q: expected SPECIES|GENE|PROTEIN, got %d segments", raw, len(segments))
	}
	if segments[0] == "" {
		return speciesField{}, fmt.Errorf("%q: empty species tag", raw)
	}
	gene, err := domain.ParseIdentifier(segments[1])
	if err != nil {
		return speciesField{}, err
	}
	protein, err := domain.ParseIdentifier(segments[2])
	if err != nil {
		return speciesField{}, err
	}
	return speciesField{tag: segments[0], gene: gene, protein: protein}, nil
}

func hasTag(tags map[string]struct{}, tag string) bool {
	_, ok := tags[tag]
	return ok
}
