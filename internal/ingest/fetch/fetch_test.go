package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHTML_Direct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte("<html><body>reviews</body></html>"))
	}))
	defer server.Close()

	client := New(Options{Timeout: 5 * time.Second, RPS: 100})

	html, err := client.FetchHTML(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "reviews")
}

func TestFetchHTML_DirectNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := New(Options{Timeout: 5 * time.Second, RPS: 100})

	_, err := client.FetchHTML(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrHTTPStatusNotOK)
}

func TestFetchHTML_RenderService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/html", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("token"))

		var req renderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://example.com/reviews", req.URL)
		assert.True(t, req.ReturnPartialOnTimeout)
		assert.Positive(t, req.Timeout)

		_, _ = w.Write([]byte("<html>rendered</html>"))
	}))
	defer server.Close()

	client := New(Options{
		RenderServiceURL:   server.URL,
		RenderServiceToken: "secret",
		Timeout:            5 * time.Second,
		RPS:                100,
	})

	html, err := client.FetchHTML(context.Background(), "https://example.com/reviews")
	require.NoError(t, err)
	assert.Equal(t, "<html>rendered</html>", html)
}

func TestGetDomainLimiter_Reused(t *testing.T) {
	client := New(Options{RPS: 100})

	first := client.getDomainLimiter("example.com")
	second := client.getDomainLimiter("example.com")
	other := client.getDomainLimiter("other.com")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}
