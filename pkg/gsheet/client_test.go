package gsheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_Success(t *testing.T) {
	t.Parallel()

	csv := "id,name,expensed\nE1,Ada Lovelace,\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spreadsheets/d/sheet-123/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "0", r.URL.Query().Get("gid"))
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csv))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	got, err := client.Export(context.Background(), "sheet-123", "0")

	require.NoError(t, err)
	assert.Equal(t, csv, string(got))
}

func TestExport_MissingSheetID(t *testing.T) {
	t.Parallel()

	client := NewClient()
	_, err := client.Export(context.Background(), "", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet id required")
}

func TestExport_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Export(context.Background(), "gone", "0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestExport_PrivateSheetHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Export(context.Background(), "private-sheet", "0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not link-shared")
}

func TestExport_RetryOn429(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	got, err := client.Export(context.Background(), "sheet-123", "42")

	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExport_RetryExhausted(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Export(context.Background(), "sheet-123", "0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExport_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte("a,b\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Export(ctx, "sheet-123", "0")
	require.Error(t, err)
}

func TestExport_RateLimitWaits(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a\n"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Export(context.Background(), "sheet-123", "0")
		require.NoError(t, err)
	}
	// Burst of 1 at 20 rps: the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient().(*httpClient)
	assert.Equal(t, "https://docs.google.com", c.baseURL)
	assert.NotNil(t, c.http)
	assert.NotNil(t, c.limiter)
}

func TestRetryableStatusCode(t *testing.T) {
	t.Parallel()

	assert.True(t, retryableStatusCode(http.StatusTooManyRequests))
	assert.True(t, retryableStatusCode(http.StatusInternalServerError))
	assert.True(t, retryableStatusCode(http.StatusBadGateway))
	assert.True(t, retryableStatusCode(http.StatusServiceUnavailable))
	assert.False(t, retryableStatusCode(http.StatusOK))
	assert.False(t, retryableStatusCode(http.StatusNotFound))
}
