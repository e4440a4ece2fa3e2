package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/logging"
)

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()

	turnCtx := core.NewTurnContext(
		context.Background(),
		"sess1", "chat1",
		core.ParticipantInfo{Name: "Designer", Kind: "model"},
		core.NewSession("sess1"),
		nil, nil, nil,
		logging.NewNoOpLogger(),
	)

	return core.NewToolContext(turnCtx, "tc_1")
}

func newProxy(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/mj/submit/imagine", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("mj-api-secret"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a cruise ship at sunset", payload["prompt"])

		_, _ = w.Write([]byte(`{"code": 1, "description": "submitted", "result": "task-42"}`))
	})
	mux.HandleFunc("/mj/task/task-42/fetch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "SUCCESS", "imageUrl": "https://cdn.example.com/task-42.png"}`))
	})

	return httptest.NewServer(mux)
}

func TestMidjourneyImagine(t *testing.T) {
	srv := newProxy(t)
	defer srv.Close()

	c := NewMidjourneyClient(srv.URL, "secret", func(o *MidjourneyOptions) {
		o.FetchDelay = time.Millisecond
	})

	url, err := c.Imagine(context.Background(), "a cruise ship at sunset")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/task-42.png", url)
}

func TestMidjourneyImagineCancelledDuringWait(t *testing.T) {
	srv := newProxy(t)
	defer srv.Close()

	c := NewMidjourneyClient(srv.URL, "secret", func(o *MidjourneyOptions) {
		o.FetchDelay = time.Minute
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Imagine(ctx, "a cruise ship at sunset")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMidjourneySubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 22, "description": "queue full", "result": ""}`))
	}))
	defer srv.Close()

	c := NewMidjourneyClient(srv.URL, "", func(o *MidjourneyOptions) {
		o.FetchDelay = time.Millisecond
	})

	_, err := c.Imagine(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestMidjourneyTaskNotReady(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mj/submit/imagine", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 1, "result": "task-9"}`))
	})
	mux.HandleFunc("/mj/task/task-9/fetch", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "IN_PROGRESS", "imageUrl": ""}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewMidjourneyClient(srv.URL, "", func(o *MidjourneyOptions) {
		o.FetchDelay = time.Millisecond
	})

	_, err := c.Imagine(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestMidjourneyToolSwallowsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewMidjourneyClient(srv.URL, "", func(o *MidjourneyOptions) {
		o.FetchDelay = time.Millisecond
	})

	result, err := c.Tool().Call(newToolContext(t), map[string]any{"prompt": "anything"})
	require.NoError(t, err)
	assert.Equal(t, "", result)
}

func TestMidjourneyToolReturnsURL(t *testing.T) {
	srv := newProxy(t)
	defer srv.Close()

	c := NewMidjourneyClient(srv.URL, "secret", func(o *MidjourneyOptions) {
		o.FetchDelay = time.Millisecond
	})

	result, err := c.Tool().Call(newToolContext(t), map[string]any{"prompt": "a cruise ship at sunset"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/task-42.png", result)
}
