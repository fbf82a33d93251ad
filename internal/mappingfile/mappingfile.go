// Package mappingfile reads and writes the tab-separated mapping files of a release.
package mappingfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
)

// Kind names one of the three files written per target species
type Kind string

const (
	KindProteinHomologs Kind = "protein_homologs"
	KindGeneProteins    Kind = "gene_proteins"
	KindGeneNames       Kind = "gene_names"
)

// Name returns the file name for kind. source is only used by
// KindProteinHomologs.
func Name(kind Kind, source, target string) string {
	switch kind {
	case KindProteinHomologs:
		return fmt.Sprintf("%s_%s_mapping.tsv", source, target)
	case KindGeneProteins:
		return target + "_gene_protein_mapping.tsv"
	case KindGeneNames:
		return target + "_gene_name_mapping.tsv"
	}
	return ""
}

// Write replaces path with one key<TAB>value line per pair, sorted. The file
// is written next to path and renamed into place, so readers never see a
// partial file. It returns the number of lines written.
func Write(path string, pairs []domain.Pair) (int, error) {
	sorted := append([]domain.Pair(nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Value < sorted[j].Value
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	for _, p := range sorted {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", p.Key, p.Value); err != nil {
			cleanup()
			return 0, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return len(sorted), nil
}

// Read parses a mapping file back into pairs, in file order. Blank lines are
// skipped; a line without exactly one tab is an INVALID_INPUT error.
func Read(path string) ([]domain.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var pairs []domain.Pair
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "\t")
		if !ok || strings.Contains(value, "\t") {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("%s:%d: expected two tab-separated columns", path, lineNo), nil)
		}
		pairs = append(pairs, domain.Pair{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return pairs, nil
}

// Multimap groups pairs by key
type Multimap map[string]map[string]struct{}

// Group builds a Multimap from pairs
func Group(pairs []domain.Pair) Multimap {
	m := Multimap{}
	for _, p := range pairs {
		if m[p.Key] == nil {
			m[p.Key] = map[string]struct{}{}
		}
		m[p.Key][p.Value] = struct{}{}
	}
	return m
}

// Values returns the sorted values stored under key
func (m Multimap) Values(key string) []string {
	set := m[key]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
