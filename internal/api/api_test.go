package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
	"github.com/kurihiro0119/orthopairs/internal/species"
	"github.com/kurihiro0119/orthopairs/internal/storage/filesystem"
	"github.com/kurihiro0119/orthopairs/pkg/client"
)

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Registry) {
	t.Helper()
	return serveRelease(t, map[string]string{
		"hsap_mmus_mapping.tsv":         "UniProtKB=P1\tUniProtKB=Q1\n",
		"mmus_gene_protein_mapping.tsv": "MGI=MGI=2\tUniProtKB=Q1\nMGI=MGI=2\tUniProtKB=Q2\n",
		"mmus_gene_name_mapping.tsv":    "Q1\tTrp53\n",
	})
}

func serveRelease(t *testing.T, files map[string]string) (*httptest.Server, *metrics.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	registry := species.New(
		domain.Species{Code: "hsap", Names: []string{"Homo sapiens"}, PantherName: "HUMAN"},
		domain.Species{Code: "mmus", Names: []string{"Mus musculus"}, PantherName: "MOUSE"},
	)
	store, err := filesystem.NewFileStorage(dir, "hsap", registry)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := metrics.NewRegistry()
	srv := httptest.NewServer(SetupRoutes(NewHandler(store, "92"), reg, nil))
	t.Cleanup(srv.Close)
	return srv, reg
}

func TestLookupsThroughClient(t *testing.T) {
	srv, _ := newTestServer(t)
	c := client.NewClient(srv.URL)

	require.NoError(t, c.HealthCheck())

	list, err := c.ListSpecies()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mmus", list[0].Species.Code)
	assert.True(t, list[0].GeneNames)

	homologs, err := c.GetProteinHomologs("mmus", "P1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Identifier{{Namespace: "UniProtKB", Accession: "Q1"}}, homologs)

	homologs, err = c.GetProteinHomologs("mmus", "UniProtKB=P1")
	require.NoError(t, err)
	assert.Len(t, homologs, 1)

	proteins, err := c.GetGeneProteins("mmus", "MGI=MGI=2")
	require.NoError(t, err)
	assert.Len(t, proteins, 2)

	name, err := c.GetGeneName("mmus", "Q1")
	require.NoError(t, err)
	assert.Equal(t, "Trp53", name)
}

func TestLookupErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	c := client.NewClient(srv.URL)

	_, err := c.GetGeneName("mmus", "Q404")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	_, err = c.GetProteinHomologs("drer", "P1")
	assert.True(t, client.IsNotFound(err))

	_, err = c.GetGeneProteins("mmus", "no-namespace")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestCorruptReleaseFileIsServerError(t *testing.T) {
	srv, _ := serveRelease(t, map[string]string{
		"mmus_gene_name_mapping.tsv": "Q1 Trp53\n",
	})
	c := client.NewClient(srv.URL)

	_, err := c.GetGeneName("mmus", "Q1")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, reg := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/species/mmus/names/Q1")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/species/:species/names/:accession", "200")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "orthopairs_http_requests_total"))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, srv.URL+"/api/v1/species", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
