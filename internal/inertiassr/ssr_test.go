package inertiassr

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trall.dev/inertia/internal/inertiabase"
)

func TestNewHTTPSsrClient(t *testing.T) {
	t.Parallel()

	t.Run("creates client with provided http client", func(t *testing.T) {
		t.Parallel()

		client := NewHTTPSsrClient("http://example.com", &http.Client{})
		assert.NotNil(t, client, "client should not be nil")
	})

	t.Run("trims trailing slash from base url", func(t *testing.T) {
		t.Parallel()

		client, ok := NewHTTPSsrClient("http://example.com/", http.DefaultClient).(*ssr)
		require.True(t, ok)
		assert.Equal(t, "http://example.com", client.baseURL)
	})
}

func TestSsrRender(t *testing.T) {
	t.Parallel()

	page := &inertiabase.Page{
		Component: "Test",
		Props:     map[string]any{"foo": "bar"},
		URL:       "/test",
	}
	pageJSON, err := json.Marshal(page)
	require.NoError(t, err)

	t.Run("successfully renders page", func(t *testing.T) {
		t.Parallel()

		expected := &SSRTemplateData{
			Head: []string{"<title>Test</title>", `<meta name="x" content="y">`},
			Body: "<div>Content</div>",
		}

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/render", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body := r.Body
			defer body.Close()

			buf, err := io.ReadAll(body)
			assert.NoError(t, err)
			assert.JSONEq(t, string(pageJSON), string(buf))

			w.Header().Set("Content-Type", "application/json")
			assert.NoError(t, json.NewEncoder(w).Encode(expected))
		}))
		defer server.Close()

		client := NewHTTPSsrClient(server.URL, http.DefaultClient)
		result, err := client.Render(t.Context(), page)

		require.NoError(t, err)
		assert.Equal(t, expected.Head, result.Head)
		assert.Equal(t, expected.Body, result.Body)
		assert.Equal(t, "<title>Test</title>\n<meta name=\"x\" content=\"y\">", result.HeadHTML())
	})

	t.Run("handles server error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewHTTPSsrClient(server.URL, http.DefaultClient)
		_, err := client.Render(t.Context(), page)
		assert.Error(t, err)
	})

	t.Run("handles invalid JSON response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, err := w.Write([]byte("invalid json"))
			assert.NoError(t, err)
		}))
		defer server.Close()

		client := NewHTTPSsrClient(server.URL, http.DefaultClient)
		_, err := client.Render(t.Context(), page)
		assert.Error(t, err)
	})

	t.Run("handles invalid URL", func(t *testing.T) {
		t.Parallel()

		client := NewHTTPSsrClient("invalid-url", http.DefaultClient)
		_, err := client.Render(t.Context(), page)
		assert.Error(t, err)
	})
}

func TestSsrIsAvailable(t *testing.T) {
	t.Parallel()

	t.Run("healthy service", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		assert.True(t, NewHTTPSsrClient(server.URL, http.DefaultClient).IsAvailable(t.Context()))
	})

	t.Run("unhealthy service", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		assert.False(t, NewHTTPSsrClient(server.URL, http.DefaultClient).IsAvailable(t.Context()))
	})

	t.Run("unreachable service", func(t *testing.T) {
		t.Parallel()

		assert.False(t, NewHTTPSsrClient("http://127.0.0.1:1", http.DefaultClient).IsAvailable(t.Context()))
	})
}
