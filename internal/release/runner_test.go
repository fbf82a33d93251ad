package release

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/internal/enrichment"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/idmapping"
	"github.com/kurihiro0119/orthopairs/internal/idmapping/idmappingtest"
	"github.com/kurihiro0119/orthopairs/internal/mappingfile"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
	"github.com/kurihiro0119/orthopairs/internal/species"
)

var dump = strings.Join([]string{
	"HUMAN|HGNC=1|UniProtKB=P1\tMOUSE|MGI=MGI=2|UniProtKB=Q1\tLDO\tEuarchontoglires\tPTHR1",
	"HUMAN|HGNC=1|UniProtKB=P1\tMOUSE|MGI=MGI=3|UniProtKB=Q2\tO\tEuarchontoglires\tPTHR1",
	"HUMAN|HGNC=4|UniProtKB=P4\tMOUSE|MGI=MGI=5|UniProtKB=Q5\tO\tEuarchontoglires\tPTHR2",
	"HUMAN|HGNC=4|UniProtKB=P4\tMOUSE|Gene=Abc|UniProtKB=Q6\tO\tEuarchontoglires\tPTHR2",
	"HUMAN|HGNC=4|UniProtKB=P4\tMOUSE|MGI=MGI=7|UniProtKB=Q7\tP\tEuarchontoglires\tPTHR2",
	"HUMAN|HGNC=1|UniProtKB=P1\tCHICK|Ensembl=ENSGALG1|UniProtKB=R1\tLDO\tAmniota\tPTHR1",
	"",
}, "\n")

func setup(t *testing.T) (string, *species.Registry) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "QfO_Genome_Orthologs.txt")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o644))

	registry := species.New(
		domain.Species{Code: "hsap", Names: []string{"Homo sapiens"}, PantherName: "HUMAN"},
		domain.Species{Code: "mmus", Names: []string{"Mus musculus"}, PantherName: "MOUSE"},
		domain.Species{Code: "btau", Names: []string{"Bos taurus"}, PantherName: "BOVIN"},
	)
	return path, registry
}

func newRunner(srv *idmappingtest.Server, registry *species.Registry) *Runner {
	reg := metrics.NewRegistry()
	enricher := enrichment.NewEnricher(idmapping.NewClient(idmapping.Options{BaseURL: srv.URL}), enrichment.Options{
		BatchSize:    2,
		MaxAttempts:  5,
		PollInterval: time.Millisecond,
		RetryDelay:   time.Millisecond,
		Metrics:      reg,
	})
	return NewRunner(registry, enricher, nil, reg)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunWritesAllFiles(t *testing.T) {
	dumpPath, registry := setup(t)
	srv := idmappingtest.NewServer(map[string]string{"Q1": "Trp53", "Q5": "Brca1"})
	defer srv.Close()
	srv.PollsBeforeFinish = 1

	out := filepath.Join(t.TempDir(), "92")
	run, err := newRunner(srv, registry).Run(context.Background(), Options{
		Release:       "92",
		SourceSpecies: "hsap",
		PantherFiles:  []string{dumpPath},
		OutputDir:     out,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.NotEmpty(t, run.ID)

	assert.Equal(t,
		"UniProtKB=P1\tUniProtKB=Q1\nUniProtKB=P4\tUniProtKB=Q5\n",
		readFile(t, filepath.Join(out, "hsap_mmus_mapping.tsv")))
	assert.Equal(t,
		"MGI=MGI=2\tUniProtKB=Q1\nMGI=MGI=3\tUniProtKB=Q2\nMGI=MGI=5\tUniProtKB=Q5\n",
		readFile(t, filepath.Join(out, "mmus_gene_protein_mapping.tsv")))
	assert.Equal(t,
		"Q1\tTrp53\nQ5\tBrca1\n",
		readFile(t, filepath.Join(out, "mmus_gene_name_mapping.tsv")))

	// btau had no records: empty files, no remote calls for it
	assert.Empty(t, readFile(t, filepath.Join(out, "hsap_btau_mapping.tsv")))
	assert.Empty(t, readFile(t, filepath.Join(out, "btau_gene_name_mapping.tsv")))

	require.Len(t, run.Species, 2)
	assert.Equal(t, "btau", run.Species[0].Code)
	mouse := run.Species[1]
	assert.Equal(t, "mmus", mouse.Code)
	assert.Equal(t, "Mus musculus", mouse.Name)
	assert.Equal(t, 2, mouse.ProteinHomologs)
	assert.Equal(t, 3, mouse.GeneProteinPairs)
	assert.Equal(t, 2, mouse.Accessions)
	assert.Equal(t, 2, mouse.GeneNames)
	assert.Len(t, mouse.Files, 3)
	assert.Equal(t, 1, srv.Submits())
}

func TestRunWithoutGeneNamesWhenEnrichmentFails(t *testing.T) {
	dumpPath, registry := setup(t)
	srv := idmappingtest.NewServer(map[string]string{"Q1": "Trp53"})
	defer srv.Close()
	srv.SubmitFailures = 5

	out := t.TempDir()
	stale := filepath.Join(out, "mmus_gene_name_mapping.tsv")
	require.NoError(t, os.WriteFile(stale, []byte("Q0\tOld\n"), 0o644))

	run, err := newRunner(srv, registry).Run(context.Background(), Options{
		Release:       "92",
		SourceSpecies: "hsap",
		PantherFiles:  []string{dumpPath},
		OutputDir:     out,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRetryExhausted))
	assert.Equal(t, domain.RunStatusFailed, run.Status)

	assert.FileExists(t, filepath.Join(out, "hsap_mmus_mapping.tsv"))
	assert.FileExists(t, filepath.Join(out, "mmus_gene_protein_mapping.tsv"))
	assert.NoFileExists(t, stale)
	assert.Equal(t, 5, srv.Submits())
}

func TestRunUnknownSourceSpecies(t *testing.T) {
	dumpPath, registry := setup(t)
	srv := idmappingtest.NewServer(nil)
	defer srv.Close()

	run, err := newRunner(srv, registry).Run(context.Background(), Options{
		Release:       "92",
		SourceSpecies: "drer",
		PantherFiles:  []string{dumpPath},
		OutputDir:     t.TempDir(),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfig))
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	assert.Empty(t, run.Species)
}

func TestRunMalformedDumpWritesNothing(t *testing.T) {
	_, registry := setup(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("HUMAN|HGNC=1|UniProtKB=P1\tMOUSE\n"), 0o644))
	srv := idmappingtest.NewServer(nil)
	defer srv.Close()

	out := filepath.Join(dir, "out")
	_, err := newRunner(srv, registry).Run(context.Background(), Options{
		Release:       "92",
		SourceSpecies: "hsap",
		PantherFiles:  []string{bad},
		OutputDir:     out,
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
	assert.NoDirExists(t, out)

	_, err = mappingfile.Read(filepath.Join(out, "hsap_mmus_mapping.tsv"))
	assert.True(t, apperrors.IsNotFound(err))
}
