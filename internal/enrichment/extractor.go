package enrichment

import (
	"fmt"
	"slices"
	"sort"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
)

// ExtractAccessions collects the distinct UniProt accessions among the values
// of homologs, sorted. Values from other namespaces cannot be looked up and
// are ignored.
func ExtractAccessions(homologs domain.SpeciesHomologs) []string {
	seen := make(map[string]struct{})
	for _, set := range homologs {
		for _, id := range set.Members() {
			if id.IsUniProt() {
				seen[id.Accession] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for acc := range seen {
		out = append(out, acc)
	}
	sort.Strings(out)
	return out
}

// Partition splits accessions into batches of at most limit members. The input
// is deduplicated and sorted first; every batch is full except the last.
func Partition(accessions []string, limit int) ([]domain.IdentifierBatch, error) {
	if limit < 1 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("batch size must be positive, got %d", limit), nil)
	}

	unique := dedupe(accessions)
	batches := make([]domain.IdentifierBatch, 0, (len(unique)+limit-1)/limit)
	for start := 0; start < len(unique); start += limit {
		end := min(start+limit, len(unique))
		batches = append(batches, domain.IdentifierBatch{
			Index:      len(batches),
			Accessions: unique[start:end:end],
		})
	}
	return batches, nil
}

func dedupe(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
