package http_utils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/timeout") {
			time.Sleep(2 * time.Second)
		}
		if strings.Contains(r.URL.Path, "/redirect") {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("echo:" + string(body)))
	}))
	defer server.Close()

	t.Run("successful request", func(t *testing.T) {
		req, err := http.NewRequest("POST", server.URL+"/test", bytes.NewReader([]byte("payload")))
		require.NoError(t, err)

		result := ExecuteRequest(req, RequestExecutionOptions{})

		require.NoError(t, result.Err)
		assert.False(t, result.TimedOut)
		require.NotNil(t, result.Exchange)
		assert.Equal(t, http.StatusOK, result.Exchange.StatusCode())
		assert.Equal(t, "echo:payload", string(result.Exchange.Body()))
		assert.Equal(t, []byte("payload"), result.Exchange.RequestBody)
		assert.Contains(t, string(result.Exchange.RequestDump), "POST /test HTTP/1.1")
		assert.Contains(t, string(result.Exchange.RequestDump), "payload")
		assert.Contains(t, string(result.Exchange.ResponseData.Raw), "echo:payload")
		assert.Equal(t, "text/plain", result.Exchange.ResponseHeader("Content-Type"))
		assert.Contains(t, result.Exchange.Dump(), "HTTP/1.1 200 OK")
	})

	t.Run("request with timeout", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/timeout", nil)
		require.NoError(t, err)

		result := ExecuteRequest(req, RequestExecutionOptions{Timeout: 500 * time.Millisecond})

		assert.Error(t, result.Err)
		assert.True(t, result.TimedOut)
		assert.Nil(t, result.Exchange)
	})

	t.Run("redirects are not followed", func(t *testing.T) {
		req, err := http.NewRequest("GET", server.URL+"/redirect", nil)
		require.NoError(t, err)

		result := ExecuteRequest(req, RequestExecutionOptions{Client: CreateHttpClient("")})

		require.NoError(t, result.Err)
		assert.Equal(t, http.StatusFound, result.Exchange.StatusCode())
	})
}

func TestIsTimeoutError(t *testing.T) {
	assert.False(t, IsTimeoutError(nil))
	assert.True(t, IsTimeoutError(context.DeadlineExceeded))
	assert.False(t, IsTimeoutError(io.EOF))
}

func TestNilExchangeAccessors(t *testing.T) {
	var exchange *Exchange
	assert.Equal(t, 0, exchange.StatusCode())
	assert.Nil(t, exchange.Body())
	assert.Empty(t, exchange.ResponseHeader("Content-Type"))
	assert.Empty(t, exchange.Dump())
}

func TestHTTPSenderRetriesTransportFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("hijacking not supported")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer server.Close()

	sender, err := NewHTTPSender(SenderOptions{MaxRetries: 2, UserAgent: "upload-scanner-test"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader([]byte("again")))
	require.NoError(t, err)
	exchange, err := sender.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "again", string(exchange.Body()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "upload-scanner-test", exchange.RequestHeader("User-Agent"))
}

func TestHTTPSenderHonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	sender := NewHTTPSenderWithClient(server.Client(), SenderOptions{RateLimit: 0.001})
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = sender.Send(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err = http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	_, err = sender.Send(ctx, req)
	assert.Error(t, err)
}
