package species

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
)

// entry is one value of the species file. The file is JSON; yaml.v3 reads it
// as a YAML document.
type entry struct {
	Name        []string `yaml:"name"`
	PantherName string   `yaml:"panther_name"`
}

// Registry is a read-only lookup from species code to its metadata
type Registry struct {
	byCode map[string]domain.Species
	codes  []string
}

// Load reads a species file from disk
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to open species config", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a species document. Every entry needs a panther_name.
func Parse(r io.Reader) (*Registry, error) {
	raw := map[string]entry{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperrors.NewConfigError("failed to parse species config", err)
	}

	species := make([]domain.Species, 0, len(raw))
	for code, e := range raw {
		if e.PantherName == "" {
			return nil, apperrors.NewConfigError(fmt.Sprintf("species %q has no panther_name", code), nil)
		}
		species = append(species, domain.Species{Code: code, Names: e.Name, PantherName: e.PantherName})
	}
	return New(species...), nil
}

// New builds a registry from in-memory entries
func New(species ...domain.Species) *Registry {
	r := &Registry{byCode: make(map[string]domain.Species, len(species))}
	for _, s := range species {
		r.byCode[s.Code] = s
		r.codes = append(r.codes, s.Code)
	}
	sort.Strings(r.codes)
	return r
}

// Get returns the species for code
func (r *Registry) Get(code string) (domain.Species, error) {
	s, ok := r.byCode[code]
	if !ok {
		return domain.Species{}, apperrors.NewNotFoundError(fmt.Sprintf("species %q", code))
	}
	return s, nil
}

// Codes returns every species code in sorted order
func (r *Registry) Codes() []string {
	return append([]string(nil), r.codes...)
}

// Targets returns every species except source, sorted by code
func (r *Registry) Targets(source string) []domain.Species {
	var out []domain.Species
	for _, code := range r.codes {
		if code != source {
			out = append(out, r.byCode[code])
		}
	}
	return out
}

// TargetTags returns the PANTHER tags of every species except source.
func (r *Registry) TargetTags(source string) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, s := range r.Targets(source) {
		tags[s.PantherName] = struct{}{}
	}
	return tags
}
