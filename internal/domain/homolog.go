package domain

import "sort"

// Pair is one key/value line of a mapping file.
type Pair struct {
	Key   string
	Value string
}

// HomologSet holds the identifiers associated with one key. A set marked as
// least diverged only ever holds members inserted from LDO records.
type HomologSet struct {
	members       map[Identifier]struct{}
	leastDiverged bool
}

// NewHomologSet creates an empty set
func NewHomologSet() *HomologSet {
	return &HomologSet{members: make(map[Identifier]struct{})}
}

// Add inserts id without touching the marker.
func (s *HomologSet) Add(id Identifier) {
	s.members[id] = struct{}{}
}

// Clear removes every member.
func (s *HomologSet) Clear() {
	clear(s.members)
}

// MarkLeastDiverged flags the set as holding least diverged orthologs.
func (s *HomologSet) MarkLeastDiverged() {
	s.leastDiverged = true
}

// LeastDiverged reports whether an LDO member has been recorded.
func (s *HomologSet) LeastDiverged() bool {
	return s.leastDiverged
}

// Members returns the identifiers sorted by their dump form.
func (s *HomologSet) Members() []Identifier {
	out := make([]Identifier, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	sortIdentifiers(out)
	return out
}

// SpeciesHomologs maps a key identifier to its homolog set for one target species.
type SpeciesHomologs map[Identifier]*HomologSet

// Keys returns the keys sorted by their dump form.
func (m SpeciesHomologs) Keys() []Identifier {
	out := make([]Identifier, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sortIdentifiers(out)
	return out
}

// Pairs flattens the mapping into sorted key/value lines.
func (m SpeciesHomologs) Pairs() []Pair {
	var pairs []Pair
	for _, key := range m.Keys() {
		for _, member := range m[key].Members() {
			pairs = append(pairs, Pair{Key: key.String(), Value: member.String()})
		}
	}
	return pairs
}

// HomologTable maps a target species tag to its homolog mapping.
type HomologTable map[string]SpeciesHomologs

// Species returns the mapping for tag, or an empty mapping when nothing was recorded.
func (t HomologTable) Species(tag string) SpeciesHomologs {
	if m, ok := t[tag]; ok {
		return m
	}
	return SpeciesHomologs{}
}

// Set returns the set stored for (tag, key), creating the species level when needed.
// The boolean is false when the key was not present.
func (t HomologTable) Set(tag string, key Identifier) (*HomologSet, bool) {
	m, ok := t[tag]
	if !ok {
		m = SpeciesHomologs{}
		t[tag] = m
	}
	set, ok := m[key]
	if !ok {
		set = NewHomologSet()
		m[key] = set
	}
	return set, ok
}

func sortIdentifiers(ids []Identifier) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Namespace != ids[j].Namespace {
			return ids[i].Namespace < ids[j].Namespace
		}
		return ids[i].Accession < ids[j].Accession
	})
}
