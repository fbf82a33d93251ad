package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/mappingfile"
	"github.com/kurihiro0119/orthopairs/internal/species"
	"github.com/kurihiro0119/orthopairs/internal/storage"
)

type fileKey struct {
	kind    mappingfile.Kind
	species string
}

// fileStorage implements the Storage interface over a release directory.
// Each mapping file is read on first use and kept in memory.
type fileStorage struct {
	dir      string
	source   string
	registry *species.Registry

	mu    sync.Mutex
	cache map[fileKey]mappingfile.Multimap
}

// NewFileStorage creates a storage reading the files of dir, written for source
func NewFileStorage(dir, source string, registry *species.Registry) (storage.Storage, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("release directory %s is not readable", dir), err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewConfigError(fmt.Sprintf("%s is not a directory", dir), nil)
	}
	if _, err := registry.Get(source); err != nil {
		return nil, apperrors.NewConfigError("source species is not configured", err)
	}
	return &fileStorage{
		dir:      dir,
		source:   source,
		registry: registry,
		cache:    make(map[fileKey]mappingfile.Multimap),
	}, nil
}

// Species lists every target species with the files present for it
func (s *fileStorage) Species(ctx context.Context) ([]storage.SpeciesFiles, error) {
	var out []storage.SpeciesFiles
	for _, sp := range s.registry.Targets(s.source) {
		out = append(out, storage.SpeciesFiles{
			Species:         sp,
			ProteinHomologs: s.exists(mappingfile.KindProteinHomologs, sp.Code),
			GeneProteins:    s.exists(mappingfile.KindGeneProteins, sp.Code),
			GeneNames:       s.exists(mappingfile.KindGeneNames, sp.Code),
		})
	}
	return out, nil
}

// ProteinHomologs returns the target proteins mapped from protein
func (s *fileStorage) ProteinHomologs(ctx context.Context, code string, protein domain.Identifier) ([]domain.Identifier, error) {
	return s.lookupIdentifiers(mappingfile.KindProteinHomologs, code, protein)
}

// GeneProteins returns the target proteins associated with gene
func (s *fileStorage) GeneProteins(ctx context.Context, code string, gene domain.Identifier) ([]domain.Identifier, error) {
	return s.lookupIdentifiers(mappingfile.KindGeneProteins, code, gene)
}

// GeneName returns the primary gene name of accession
func (s *fileStorage) GeneName(ctx context.Context, code, accession string) (string, error) {
	m, err := s.load(mappingfile.KindGeneNames, code)
	if err != nil {
		return "", err
	}
	names := m.Values(accession)
	if len(names) == 0 {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("gene name for %s in %s", accession, code))
	}
	return names[0], nil
}

// Close drops the cached files
func (s *fileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.cache)
	return nil
}

func (s *fileStorage) lookupIdentifiers(kind mappingfile.Kind, code string, key domain.Identifier) ([]domain.Identifier, error) {
	m, err := s.load(kind, code)
	if err != nil {
		return nil, err
	}
	values := m.Values(key.String())
	if len(values) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s in %s", key, code))
	}

	out := make([]domain.Identifier, 0, len(values))
	for _, v := range values {
		id, err := domain.ParseIdentifier(v)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("bad value in %s file for %s", kind, code), err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *fileStorage) load(kind mappingfile.Kind, code string) (mappingfile.Multimap, error) {
	if _, err := s.registry.Get(code); err != nil || code == s.source {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("species %q", code))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := fileKey{kind: kind, species: code}
	if m, ok := s.cache[key]; ok {
		return m, nil
	}
	pairs, err := mappingfile.Read(s.path(kind, code))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("release %s file for %s is unreadable", kind, code), err)
	}
	m := mappingfile.Group(pairs)
	s.cache[key] = m
	return m, nil
}

func (s *fileStorage) exists(kind mappingfile.Kind, code string) bool {
	_, err := os.Stat(s.path(kind, code))
	return err == nil
}

func (s *fileStorage) path(kind mappingfile.Kind, code string) string {
	return filepath.Join(s.dir, mappingfile.Name(kind, s.source, code))
}
