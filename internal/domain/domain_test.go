package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		raw     string
		want    Identifier
		wantErr bool
	}{
		{raw: "UniProtKB=P04637", want: Identifier{Namespace: "UniProtKB", Accession: "P04637"}},
		{raw: "MGI=MGI=98834", want: Identifier{Namespace: "MGI", Accession: "MGI=98834"}},
		{raw: "Ensembl=", want: Identifier{Namespace: "Ensembl"}},
		{raw: "P04637", wantErr: true},
		{raw: "=P04637", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseIdentifier(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.raw, got.String())
		})
	}
}

func TestIdentifierPredicates(t *testing.T) {
	assert.True(t, Identifier{Namespace: "UniProtKB", Accession: "P1"}.IsUniProt())
	assert.False(t, Identifier{Namespace: "UniProtKB"}.IsUniProt())
	assert.False(t, Identifier{Namespace: "Ensembl", Accession: "P1"}.IsUniProt())

	for _, ns := range []string{"Gene", "GeneID", "Gene_Name", "Gene_ORFName", "Gene_OrderedLocusName"} {
		assert.True(t, Identifier{Namespace: ns, Accession: "x"}.IsPlaceholder(), ns)
	}
	assert.False(t, Identifier{Namespace: "HGNC", Accession: "11998"}.IsPlaceholder())
}

func TestOrthologTypeAccepted(t *testing.T) {
	assert.True(t, ParseOrthologType("LDO").IsAccepted())
	assert.True(t, ParseOrthologType(" O ").IsAccepted())
	for _, raw := range []string{"P", "X", "LDX", ""} {
		assert.False(t, ParseOrthologType(raw).IsAccepted(), raw)
	}
}

func TestSpeciesHomologsPairsSorted(t *testing.T) {
	table := HomologTable{}
	set, existed := table.Set("MOUSE", Identifier{Namespace: "UniProtKB", Accession: "P2"})
	assert.False(t, existed)
	set.Add(Identifier{Namespace: "UniProtKB", Accession: "Q2"})
	set.Add(Identifier{Namespace: "UniProtKB", Accession: "Q1"})
	other, _ := table.Set("MOUSE", Identifier{Namespace: "UniProtKB", Accession: "P1"})
	other.Add(Identifier{Namespace: "Ensembl", Accession: "E1"})

	_, existed = table.Set("MOUSE", Identifier{Namespace: "UniProtKB", Accession: "P2"})
	assert.True(t, existed)

	assert.Equal(t, []Pair{
		{Key: "UniProtKB=P1", Value: "Ensembl=E1"},
		{Key: "UniProtKB=P2", Value: "UniProtKB=Q1"},
		{Key: "UniProtKB=P2", Value: "UniProtKB=Q2"},
	}, table.Species("MOUSE").Pairs())
	assert.Empty(t, table.Species("BOVIN").Pairs())
}

func TestAccessionNameTable(t *testing.T) {
	table := AccessionNameTable{"P2": "Brca1"}
	table.Merge(AccessionNameTable{"P1": "Trp53"})
	assert.Equal(t, []Pair{{Key: "P1", Value: "Trp53"}, {Key: "P2", Value: "Brca1"}}, table.Pairs())

	assert.True(t, JobStateDone.IsTerminal())
	assert.True(t, JobStateFailed.IsTerminal())
	assert.False(t, JobStateRetryWait.IsTerminal())
}
