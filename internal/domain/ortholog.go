package domain

import (
	"fmt"
	"strings"
)

// OrthologType is the relationship column of a PANTHER ortholog line.
type OrthologType string

const (
	OrthologTypeLeastDiverged        OrthologType = "LDO"
	OrthologTypeOrtholog             OrthologType = "O"
	OrthologTypeParalog              OrthologType = "P"
	OrthologTypeXenolog              OrthologType = "X"
	OrthologTypeLeastDivergedXenolog OrthologType = "LDX"
)

// ParseOrthologType maps the raw column value onto a known type. Unknown values
// are returned as-is so they can be rejected by IsAccepted.
func ParseOrthologType(raw string) OrthologType {
	return OrthologType(strings.TrimSpace(raw))
}

// IsAccepted reports whether records of this type enter the homolog tables.
func (t OrthologType) IsAccepted() bool {
	return t == OrthologTypeLeastDiverged || t == OrthologTypeOrtholog
}

// Identifier is one NAMESPACE=value segment of a dump field, split on the first '='.
// "MGI=MGI=2" has namespace "MGI" and accession "MGI=2".
type Identifier struct {
	Namespace string `json:"namespace"`
	Accession string `json:"accession"`
}

// UniProtNamespace is the namespace of identifiers the ID mapping service resolves.
const UniProtNamespace = "UniProtKB"

// ParseIdentifier splits a raw segment. Segments without '=' or with an empty
// namespace are rejected.
func ParseIdentifier(raw string) (Identifier, error) {
	ns, acc, ok := strings.Cut(raw, "=")
	if !ok || ns == "" {
		return Identifier{}, fmt.Errorf("identifier %q is not of the form NAMESPACE=value", raw)
	}
	return Identifier{Namespace: ns, Accession: acc}, nil
}

// String returns the segment in dump form.
func (i Identifier) String() string {
	return i.Namespace + "=" + i.Accession
}

// IsUniProt reports whether the identifier can be sent to the ID mapping service.
func (i Identifier) IsUniProt() bool {
	return i.Namespace == UniProtNamespace && i.Accession != ""
}

// IsPlaceholder reports whether the segment is a display name rather than an ID
// (Gene, GeneID, Gene_Name, Gene_ORFName, Gene_OrderedLocusName).
func (i Identifier) IsPlaceholder() bool {
	return strings.HasPrefix(i.Namespace, "Gene")
}

// OrthologRecord represents one accepted dump line
type OrthologRecord struct {
	SourceSpecies string
	SourceGene    Identifier
	SourceProtein Identifier
	TargetSpecies string
	TargetGene    Identifier
	TargetProtein Identifier
	Type          OrthologType
}
