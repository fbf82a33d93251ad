package idmapping

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
)

// DefaultBaseURL is the public UniProt ID mapping endpoint
const DefaultBaseURL = "https://rest.uniprot.org/idmapping"

const (
	fromDatabase = "UniProtKB_AC-ID"
	toDatabase   = "UniProtKB"
	resultFields = "gene_primary"
)

// JobStatus is the remote state of a submitted mapping job
type JobStatus string

const (
	StatusRunning  JobStatus = "RUNNING"
	StatusFinished JobStatus = "FINISHED"
)

// Service defines the three calls of the remote job protocol. Errors are
// classified: transient failures satisfy errors.IsTransient, anything else
// must not be retried.
type Service interface {
	// Submit starts a mapping job for accessions and returns its job id
	Submit(ctx context.Context, accessions []string) (string, error)

	// Status reports whether the job has finished
	Status(ctx context.Context, jobID string) (JobStatus, error)

	// Results fetches the accession to primary gene name table of a finished job
	Results(ctx context.Context, jobID string) (domain.AccessionNameTable, error)
}

// Options configures a Client
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	MinRequestDelay time.Duration
	Logger          *slog.Logger
	Metrics         *metrics.Registry
}

// Client implements Service over HTTP
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter RateLimiter
	logger      *slog.Logger
	metrics     *metrics.Registry
}

// NewClient creates a new ID mapping client
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			// A finished job answers the status call with a redirect to its
			// results. The redirect itself is the signal.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		rateLimiter: NewRateLimiter(opts.MinRequestDelay),
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// Submit starts a mapping job for accessions
func (c *Client) Submit(ctx context.Context, accessions []string) (string, error) {
	form := url.Values{}
	form.Set("ids", strings.Join(accessions, ","))
	form.Set("from", fromDatabase)
	form.Set("to", toDatabase)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.NewFatalError("failed to build submit request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(ctx, "submit", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		JobID string `json:"jobId"`
	}
	if err := decodeBody(ctx, "submit", resp, &body); err != nil {
		return "", err
	}
	if body.JobID == "" {
		return "", apperrors.NewFatalError("submit response has no jobId", nil)
	}

	c.logger.Debug("submitted mapping job", "job_id", body.JobID, "accessions", len(accessions))
	return body.JobID, nil
}

// Status reports whether the job has finished
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return "", apperrors.NewFatalError("failed to build status request", err)
	}

	resp, err := c.do(ctx, "status", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return StatusFinished, nil
	}

	var body struct {
		JobStatus string          `json:"jobStatus"`
		Results   json.RawMessage `json:"results"`
	}
	if err := decodeBody(ctx, "status", resp, &body); err != nil {
		return "", err
	}
	if len(body.Results) > 0 {
		return StatusFinished, nil
	}

	switch body.JobStatus {
	case "FINISHED":
		return StatusFinished, nil
	case "NEW", "RUNNING":
		return StatusRunning, nil
	default:
		return "", apperrors.NewFatalError(fmt.Sprintf("mapping job %s reported status %q", jobID, body.JobStatus), nil)
	}
}

// Results fetches the accession to gene name table of a finished job. The
// first line is a header. Lines without exactly two non-empty columns are
// skipped.
func (c *Client) Results(ctx context.Context, jobID string) (domain.AccessionNameTable, error) {
	query := url.Values{}
	query.Set("fields", resultFields)
	query.Set("format", "tsv")
	endpoint := c.baseURL + "/uniprotkb/results/stream/" + url.PathEscape(jobID) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewFatalError("failed to build results request", err)
	}

	resp, err := c.do(ctx, "results", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	table := domain.AccessionNameTable{}
	skipped := 0
	scanner := bufio.NewScanner(resp.Body)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		acc, name, ok := parseResultLine(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		table[acc] = name
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewTransientError(fmt.Sprintf("results stream for job %s interrupted", jobID), err)
	}

	if skipped > 0 {
		c.logger.Debug("skipped result lines", "job_id", jobID, "skipped", skipped)
	}
	return table, nil
}

// decodeBody reads the whole body before decoding it. A body cut short by the
// connection is transient; a complete body that is not valid JSON is fatal.
func decodeBody(ctx context.Context, operation string, resp *http.Response, v any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewTransientError(fmt.Sprintf("%s response interrupted", operation), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewFatalError(fmt.Sprintf("failed to decode %s response", operation), err)
	}
	return nil
}

func parseResultLine(line string) (string, string, bool) {
	cols := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(cols) != 2 {
		return "", "", false
	}
	acc, name := strings.TrimSpace(cols[0]), strings.TrimSpace(cols[1])
	if acc == "" || name == "" {
		return "", "", false
	}
	return acc, name, true
}

// do sends req and classifies the outcome
func (c *Client) do(ctx context.Context, operation string, req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.record(operation, "transient")
		return nil, apperrors.NewTransientError(fmt.Sprintf("%s request failed", operation), err)
	}

	if err := c.classify(operation, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	c.record(operation, "ok")
	return resp, nil
}

func (c *Client) classify(operation string, resp *http.Response) error {
	code := resp.StatusCode
	if code < 400 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("%s returned HTTP %d: %s", operation, code, strings.TrimSpace(string(snippet)))

	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500 {
		if code == http.StatusTooManyRequests {
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				c.rateLimiter.Backoff(time.Now().Add(time.Duration(secs) * time.Second))
			}
		}
		c.record(operation, "transient")
		return apperrors.NewTransientError(msg, nil)
	}

	c.record(operation, "fatal")
	return apperrors.NewFatalError(msg, nil)
}

func (c *Client) record(operation, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordRequest(operation, outcome)
	}
}
