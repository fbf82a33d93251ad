package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	"github.com/kurihiro0119/orthopairs/internal/storage"
)

// Client is the API client for the orthopairs read API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-200 answer from the API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an API 404
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// ListSpecies retrieves the target species of the served release
func (c *Client) ListSpecies() ([]storage.SpeciesFiles, error) {
	var response struct {
		Data []storage.SpeciesFiles `json:"data"`
	}
	if err := c.get("/api/v1/species", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetProteinHomologs retrieves the target proteins mapped from a source protein.
// A bare accession is read as a UniProtKB identifier.
func (c *Client) GetProteinHomologs(species, protein string) ([]domain.Identifier, error) {
	return c.getIdentifiers(fmt.Sprintf("/api/v1/species/%s/homologs/%s", url.PathEscape(species), url.PathEscape(protein)))
}

// GetGeneProteins retrieves the target proteins of a gene given as NAMESPACE=value
func (c *Client) GetGeneProteins(species, gene string) ([]domain.Identifier, error) {
	return c.getIdentifiers(fmt.Sprintf("/api/v1/species/%s/genes/%s", url.PathEscape(species), url.PathEscape(gene)))
}

// GetGeneName retrieves the primary gene name of an accession
func (c *Client) GetGeneName(species, accession string) (string, error) {
	var response struct {
		Data struct {
			GeneName string `json:"gene_name"`
		} `json:"data"`
	}
	if err := c.get(fmt.Sprintf("/api/v1/species/%s/names/%s", url.PathEscape(species), url.PathEscape(accession)), &response); err != nil {
		return "", err
	}
	return response.Data.GeneName, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) getIdentifiers(path string) ([]domain.Identifier, error) {
	var response struct {
		Data []domain.Identifier `json:"data"`
	}
	if err := c.get(path, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func (c *Client) get(path string, result interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
