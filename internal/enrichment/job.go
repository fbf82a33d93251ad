package enrichment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/idmapping"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
)

// JobClient drives one batch through submit, poll and fetch. Transient
// failures count against MaxAttempts for the whole batch; polling a job that
// is still running does not.
type JobClient struct {
	service      idmapping.Service
	maxAttempts  int
	pollInterval time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger
	metrics      *metrics.Registry
}

// NewJobClient creates a job client. logger and reg may be nil.
func NewJobClient(service idmapping.Service, maxAttempts int, pollInterval, retryDelay time.Duration, logger *slog.Logger, reg *metrics.Registry) *JobClient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &JobClient{
		service:      service,
		maxAttempts:  maxAttempts,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		logger:       logger,
		metrics:      reg,
	}
}

// Run executes job until it reaches DONE or FAILED. The returned error is nil
// exactly when the job is DONE.
func (c *JobClient) Run(ctx context.Context, job *domain.EnrichmentJob) (domain.AccessionNameTable, error) {
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}
	job.State = domain.JobStateSubmitting
	resume := domain.JobStateSubmitting
	logger := c.logger.With("job_ref", job.Ref, "batch", job.Batch.Index)

	var table domain.AccessionNameTable
	for !job.State.IsTerminal() {
		switch job.State {
		case domain.JobStateSubmitting:
			jobID, err := c.service.Submit(ctx, job.Batch.Accessions)
			if err != nil {
				resume = c.fail(logger, job, err)
				continue
			}
			job.JobID = jobID
			job.State = domain.JobStatePolling
			logger.Debug("job submitted", "job_id", jobID, "accessions", len(job.Batch.Accessions))

		case domain.JobStatePolling:
			status, err := c.service.Status(ctx, job.JobID)
			if err != nil {
				resume = c.fail(logger, job, err)
				continue
			}
			if status == idmapping.StatusFinished {
				job.State = domain.JobStateFetching
				continue
			}
			job.Polls++
			if c.metrics != nil {
				c.metrics.RecordPoll()
			}
			if err := sleep(ctx, c.pollInterval); err != nil {
				job.LastError = err
				job.State = domain.JobStateFailed
			}

		case domain.JobStateFetching:
			result, err := c.service.Results(ctx, job.JobID)
			if err != nil {
				resume = c.fail(logger, job, err)
				continue
			}
			table = result
			job.State = domain.JobStateDone

		case domain.JobStateRetryWait:
			if err := sleep(ctx, c.retryDelay*time.Duration(job.Attempts)); err != nil {
				job.LastError = err
				job.State = domain.JobStateFailed
				continue
			}
			job.State = resume
		}
	}

	if job.State == domain.JobStateFailed {
		return nil, job.LastError
	}

	if c.metrics != nil {
		c.metrics.RecordBatch(time.Since(job.StartedAt))
	}
	logger.Debug("job done", "job_id", job.JobID, "polls", job.Polls, "names", len(table))
	return table, nil
}

// fail records err against job and picks the next state. It returns the
// state to resume from after RETRY_WAIT.
func (c *JobClient) fail(logger *slog.Logger, job *domain.EnrichmentJob, err error) domain.JobState {
	from := job.State

	if !apperrors.IsTransient(err) {
		job.LastError = fmt.Errorf("batch %d %s: %w", job.Batch.Index, from, err)
		job.State = domain.JobStateFailed
		return from
	}

	job.Attempts++
	if job.Attempts >= c.maxAttempts {
		job.LastError = apperrors.NewRetryExhaustedError(
			fmt.Sprintf("batch %d gave up in %s after %d attempts", job.Batch.Index, from, job.Attempts), err)
		job.State = domain.JobStateFailed
		return from
	}

	logger.Warn("transient ID mapping failure, retrying",
		"state", from,
		"attempt", job.Attempts,
		"max_attempts", c.maxAttempts,
		"error", err,
	)
	if c.metrics != nil {
		c.metrics.RecordRetry(string(from))
	}
	job.LastError = err
	job.State = domain.JobStateRetryWait
	return from
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
