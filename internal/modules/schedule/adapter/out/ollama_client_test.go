package out_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scheduleout "mindtrack/internal/modules/schedule/adapter/out"
)

func TestOllamaClientGenerateSendsJSONRequest(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"{\"schedule\":[]}","done":true}`))
	}))
	defer srv.Close()

	client := scheduleout.NewOllamaClient(srv.URL+"/", "qwen2.5:7b", time.Second)
	out, err := client.Generate(context.Background(), "plan please")
	require.NoError(t, err)
	assert.Equal(t, `{"schedule":[]}`, out)
	assert.Equal(t, "qwen2.5:7b", got["model"])
	assert.Equal(t, "plan please", got["prompt"])
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "json", got["format"])
}

func TestOllamaClientGenerateReportsStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := scheduleout.NewOllamaClient(srv.URL, "missing", time.Second).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaClientGenerateHonorsContextDeadline(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := scheduleout.NewOllamaClient(srv.URL, "m", 10*time.Second).Generate(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOllamaClientPing(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	client := scheduleout.NewOllamaClient(srv.URL, "m", time.Second)
	require.NoError(t, client.Ping(context.Background()))

	srv.Close()
	require.Error(t, client.Ping(context.Background()))
}
