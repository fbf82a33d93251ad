package idmapping_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/orthopairs/internal/domain"
	apperrors "github.com/kurihiro0119/orthopairs/internal/errors"
	"github.com/kurihiro0119/orthopairs/internal/idmapping"
	"github.com/kurihiro0119/orthopairs/internal/idmapping/idmappingtest"
	"github.com/kurihiro0119/orthopairs/internal/metrics"
)

func newClient(url string, reg *metrics.Registry) *idmapping.Client {
	return idmapping.NewClient(idmapping.Options{BaseURL: url, Timeout: 5 * time.Second, Metrics: reg})
}

func TestClientProtocol(t *testing.T) {
	srv := idmappingtest.NewServer(map[string]string{"P1": "TP53", "P2": "BRCA1"})
	defer srv.Close()
	srv.PollsBeforeFinish = 1
	srv.ExtraResultLines = []string{"P9", "P8\t", "P7\tA\tB"}

	ctx := context.Background()
	client := newClient(srv.URL, nil)

	jobID, err := client.Submit(ctx, []string{"P1", "P2", "P3"})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	status, err := client.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, idmapping.StatusRunning, status)

	status, err = client.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, idmapping.StatusFinished, status)

	table, err := client.Results(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccessionNameTable{"P1": "TP53", "P2": "BRCA1"}, table)
}

func TestClientStatusRedirectMeansFinished(t *testing.T) {
	srv := idmappingtest.NewServer(nil)
	defer srv.Close()
	srv.RedirectOnFinish = true

	ctx := context.Background()
	client := newClient(srv.URL, nil)
	jobID, err := client.Submit(ctx, []string{"P1"})
	require.NoError(t, err)

	status, err := client.Status(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, idmapping.StatusFinished, status)
}

func TestClientClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		transient bool
	}{
		{name: "service unavailable", code: http.StatusServiceUnavailable, transient: true},
		{name: "internal error", code: http.StatusInternalServerError, transient: true},
		{name: "too many requests", code: http.StatusTooManyRequests, transient: true},
		{name: "request timeout", code: http.StatusRequestTimeout, transient: true},
		{name: "bad request", code: http.StatusBadRequest, transient: false},
		{name: "forbidden", code: http.StatusForbidden, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := idmappingtest.NewServer(nil)
			defer srv.Close()
			srv.SubmitFailures = 1
			srv.FailureCode = tt.code

			reg := metrics.NewRegistry()
			_, err := newClient(srv.URL, reg).Submit(context.Background(), []string{"P1"})
			require.Error(t, err)
			assert.Equal(t, tt.transient, apperrors.IsTransient(err))
			assert.Equal(t, !tt.transient, apperrors.IsFatal(err))
		})
	}
}

func TestClientUnknownJobIsFatal(t *testing.T) {
	srv := idmappingtest.NewServer(nil)
	defer srv.Close()

	_, err := newClient(srv.URL, nil).Status(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFatal))
}

func TestClientConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url, nil).Submit(context.Background(), []string{"P1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestClientErrorStatusIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobStatus":"ERROR"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil).Status(context.Background(), "job")
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestClientResultsWithoutJobStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"from":"P1","to":"P1"}]}`))
	}))
	defer srv.Close()

	status, err := newClient(srv.URL, nil).Status(context.Background(), "job")
	require.NoError(t, err)
	assert.Equal(t, idmapping.StatusFinished, status)
}

func TestClientSubmitWithoutJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil).Submit(context.Background(), []string{"P1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	limiter := idmapping.NewRateLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRateLimiterSpacesConcurrentWaiters(t *testing.T) {
	const delay = 30 * time.Millisecond
	limiter := idmapping.NewRateLimiter(delay)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		released []time.Duration
	)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Wait(ctx))
			mu.Lock()
			released = append(released, time.Since(start))
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	require.Len(t, released, 3)
	for i, at := range released {
		assert.GreaterOrEqual(t, at, time.Duration(i+1)*delay, "waiter %d released too early", i)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	limiter := idmapping.NewRateLimiter(0)
	limiter.Backoff(time.Now().Add(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}

// truncatedBody answers 200 with a body shorter than its Content-Length and
// drops the connection.
func truncatedBody(partial string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", "40")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(partial))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		conn, _, err := http.NewResponseController(w).Hijack()
		if err == nil {
			conn.Close()
		}
	})
}

func TestClientInterruptedBodyIsTransient(t *testing.T) {
	t.Run("submit", func(t *testing.T) {
		srv := httptest.NewServer(truncatedBody(`{"jobId":"ab`))
		defer srv.Close()

		_, err := newClient(srv.URL, nil).Submit(context.Background(), []string{"P1"})
		require.Error(t, err)
		assert.True(t, apperrors.IsTransient(err), "got %v", err)
	})

	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(truncatedBody(`{"jobStatus":"RUN`))
		defer srv.Close()

		_, err := newClient(srv.URL, nil).Status(context.Background(), "job")
		require.Error(t, err)
		assert.True(t, apperrors.IsTransient(err), "got %v", err)
	})
}

func TestClientMalformedBodyIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, nil).Status(context.Background(), "job")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFatal))
}
