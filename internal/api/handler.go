package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/storage"
)

// Handler handles API requests
type Handler struct {
	storage storage.Storage
	release string
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage, release string) *Handler {
	return &Handler{
		storage: store,
		release: release,
	}
}

// ListSpecies returns the target species of the release
// GET /api/v1/species
func (h *Handler) ListSpecies(c *gin.Context) {
	species, err := h.storage.Species(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"release": h.release,
		"data":    species,
	})
}

// GetProteinHomologs returns the homologs of a source protein
// GET /api/v1/species/:species/homologs/:protein
func (h *Handler) GetProteinHomologs(c *gin.Context) {
	protein, err := parseKey(c.Param("protein"), domain.UniProtNamespace)
	if err != nil {
		respondError(c, err)
		return
	}

	homologs, err := h.storage.ProteinHomologs(c.Request.Context(), c.Param("species"), protein)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":  protein,
		"data": homologs,
	})
}

// GetGeneProteins returns the proteins of a target gene
// GET /api/v1/species/:species/genes/:gene
func (h *Handler) GetGeneProteins(c *gin.Context) {
	gene, err := parseKey(c.Param("gene"), "")
	if err != nil {
		respondError(c, err)
		return
	}

	proteins, err := h.storage.GeneProteins(c.Request.Context(), c.Param("species"), gene)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"key":  gene,
		"data": proteins,
	})
}

// GetGeneName returns the primary gene name of an accession
// GET /api/v1/species/:species/names/:accession
func (h *Handler) GetGeneName(c *gin.Context) {
	accession := c.Param("accession")

	name, err := h.storage.GeneName(c.Request.Context(), c.Param("species"), accession)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"accession": accession,
			"gene_name": name,
		},
	})
}

// HealthCheck returns the health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"release": h.release,
	})
}

// parseKey reads a NAMESPACE=value path segment. A bare value takes
// defaultNamespace when one is given.
func parseKey(raw, defaultNamespace string) (domain.Identifier, error) {
	if !strings.Contains(raw, "=") && defaultNamespace != "" {
		return domain.Identifier{Namespace: defaultNamespace, Accession: raw}, nil
	}
	id, err := domain.ParseIdentifier(raw)
	if err != nil {
		return domain.Identifier{}, apperrors.NewInvalidInputError("identifier must be NAMESPACE=value", err)
	}
	return id, nil
}

// respondError responds with an error
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeInvalidInput:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
