package llm

import (
	"context"
	"encoding/json"
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

func TestRewriteSendsChatRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"# Merged\n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithEndpoint(srv.URL))
	out, err := c.Rewrite(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "# Merged\n", out)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.InDelta(t, DefaultTemperature, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "system prompt"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user prompt"}, got.Messages[1])
}

func TestRewriteHonoursOptions(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk", WithEndpoint(srv.URL), WithModel("gpt-4o-mini"), WithMaxTokens(128), WithTemperature(0.7))
	_, err := c.Rewrite(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 128, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, "gpt-4o-mini", c.Model())
}

func TestRewriteWithoutKeyNeverCallsEndpoint(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient("   ", WithEndpoint(srv.URL))
	_, err := c.Rewrite(context.Background(), "s", "u")
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRewriteSurfacesRemoteErrorMessage(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("sk", WithEndpoint(srv.URL)).Rewrite(context.Background(), "s", "u")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "err = %v", err)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Rate limit reached", apiErr.Message)
	assert.Equal(t, "OpenAI API error (429): Rate limit reached", err.Error())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "rewrite must not retry")
}

func TestRewriteNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient("sk", WithEndpoint(srv.URL)).Rewrite(context.Background(), "s", "u")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestRewriteRejectsMissingContent(t *testing.T) {
	bodies := []string{
		`{"choices":[]}`,
		`{"choices":[{"message":{}}]}`,
		`{}`,
		`not json`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := NewClient("sk", WithEndpoint(srv.URL)).Rewrite(context.Background(), "s", "u")
		srv.Close()
		require.ErrorIs(t, err, ErrInvalidResponse, "body %s", body)
	}
}

func TestRewriteAcceptsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer srv.Close()

	out, err := NewClient("sk", WithEndpoint(srv.URL)).Rewrite(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRewriteTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient("sk", WithEndpoint(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := c.Rewrite(context.Background(), "s", "u")
	require.Error(t, err)
}
