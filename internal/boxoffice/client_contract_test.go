package boxoffice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestHTTPClientSmoke checks a live box office service when BOXOFFICE_URL is
// set, e.g. the one started by cmd/boxoffice-mock.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("BOXOFFICE_URL")
	if baseURL == "" {
		t.Skip("BOXOFFICE_URL not provided")
	}
	apiKey := os.Getenv("BOXOFFICE_API_KEY")
	client, err := NewHTTPClient(baseURL, apiKey, 3*time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Fetch(ctx, "Inception")
	if err != nil {
		t.Fatalf("fetch mock data: %v", err)
	}
	if result.Currency == "" {
		t.Fatalf("unexpected box office payload: %+v", result)
	}
}

func TestHTTPClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/boxoffice", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		switch r.URL.Query().Get("title") {
		case "Inception":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"Inception","revenue":{"worldwide":836800000},"currency":"USD","source":"mock"}`))
		case "Broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL+"/", "key", time.Second, nil)
	require.NoError(t, err)

	result, err := client.Fetch(context.Background(), "Inception")
	require.NoError(t, err)
	assert.Equal(t, int64(836800000), result.Collection)
	assert.Equal(t, "mock", result.Source)

	_, err = client.Fetch(context.Background(), "Tenet")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = client.Fetch(context.Background(), "Broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient("localhost:8090", "key", time.Second, nil)
	require.Error(t, err)
}
