package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	c := New(url)
	c.retryDelay = time.Millisecond
	return c
}

func TestRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"internal server error","status":500}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","timestamp":"2026-01-02T15:04:05Z"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"unavailable","status":503}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Health(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(4), calls.Load(), "initial attempt plus three retries")
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"name and description are required","status":400}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateDataset(context.Background(), DatasetInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "name and description are required", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTokenStoredAndAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"message":"login successful","token":"tok-123","user":{"id":"u1","email":"a@b.com"}}`))
		case "/datasets":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"no token provided","status":401}}`))
				return
			}
			_, _ = w.Write([]byte(`{"datasets":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Login(context.Background(), Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.Token)
	assert.Equal(t, "tok-123", c.Token())

	datasets, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, datasets)
}

func TestNilTagsSerializeAsEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"tags":[]`)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"dataset created successfully","dataset":{"id":"d1","name":"n","description":"d","tags":[],"createdAt":"2026-01-02T15:04:05Z","userId":"u1"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.SetToken("tok")
	dataset, err := c.CreateDataset(context.Background(), DatasetInput{Name: "n", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "d1", dataset.ID)
}

func TestNetworkErrorSurfacesAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	_, err := newTestClient(srv.URL).Health(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "network failure is not an API error")
}
