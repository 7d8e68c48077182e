package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgekit-ai/llm-bridge/internal/config"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

func httpModel(baseURL string) *registry.ModelDescriptor {
	return &registry.ModelDescriptor{
		Name:    "remote",
		ModelID: "remote-model-1",
		Provider: config.ProviderConfig{
			Type:    config.ProviderHTTP,
			BaseURL: baseURL,
			APIKey:  "test-key",
			ExtraHeaders: map[string]string{
				"X-Title": "llm-bridge",
			},
		},
	}
}

func completionBody(content string) string {
	resp := types.ChatCompletionResponse{
		Id:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  "remote-model-1",
		Choices: []types.Choice{
			{Message: types.Message{Role: types.RoleAssistant, Content: content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestHTTPExecute_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "llm-bridge", r.Header.Get("X-Title"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "remote-model-1", payload["model"])
		assert.Equal(t, false, payload["stream"])

		fmt.Fprint(w, completionBody("the answer"))
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	req := &Request{Messages: []types.Message{{Role: types.RoleUser, Content: "q"}}}

	text, err := e.Execute(context.Background(), req, httpModel(srv.URL+"/v1"))

	require.NoError(t, err)
	assert.Equal(t, "the answer", text)
}

func TestHTTPExecute_TrailingSlashInBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		fmt.Fprint(w, completionBody("ok"))
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	_, err := e.Execute(context.Background(), &Request{}, httpModel(srv.URL+"/v1/"))

	require.NoError(t, err)
}

func TestHTTPExecute_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	_, err := e.Execute(context.Background(), &Request{}, httpModel(srv.URL))

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestHTTPExecute_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	_, err := e.Execute(context.Background(), &Request{}, httpModel(srv.URL))

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
}

func TestHTTPExecute_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionBody(""))
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	_, err := e.Execute(context.Background(), &Request{}, httpModel(srv.URL))

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
}

func TestHTTPExecuteStream_EmitsDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hello \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	req := &Request{Messages: []types.Message{{Role: types.RoleUser, Content: "q"}}}

	var got []string
	err := e.ExecuteStream(context.Background(), req, httpModel(srv.URL), func(text string) error {
		got = append(got, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"hello ", "world"}, got)
}

func TestHTTPExecuteStream_SkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ": keep-alive comment\n")
		fmt.Fprint(w, "data: {not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)

	var got []string
	err := e.ExecuteStream(context.Background(), &Request{}, httpModel(srv.URL), func(text string) error {
		got = append(got, text)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
}

func TestHTTPExecuteStream_NoOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	err := e.ExecuteStream(context.Background(), &Request{}, httpModel(srv.URL), func(string) error {
		t.Fatal("unexpected emit")
		return nil
	})

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
}

func TestHTTPExecuteStream_StalledUpstreamTimesOut(t *testing.T) {
	hang := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-hang
	}))
	defer srv.Close()
	defer close(hang)

	e := NewHTTPExecutor(200 * time.Millisecond)

	start := time.Now()
	err := e.ExecuteStream(context.Background(), &Request{}, httpModel(srv.URL), func(string) error {
		t.Fatal("unexpected emit")
		return nil
	})

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
	assert.Contains(t, err.Error(), "timed out before producing output")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPExecuteStream_StallAfterOutputTimesOut(t *testing.T) {
	hang := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-hang
	}))
	defer srv.Close()
	defer close(hang)

	e := NewHTTPExecutor(200 * time.Millisecond)

	var got []string
	start := time.Now()
	err := e.ExecuteStream(context.Background(), &Request{}, httpModel(srv.URL), func(text string) error {
		got = append(got, text)
		return nil
	})

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
	assert.Contains(t, err.Error(), "stream read timed out")
	assert.Equal(t, []string{"partial"}, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPExecuteStream_CanceledContext(t *testing.T) {
	hang := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-hang
	}))
	defer srv.Close()
	defer close(hang)

	e := NewHTTPExecutor(30 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := e.ExecuteStream(ctx, &Request{}, httpModel(srv.URL), func(string) error { return nil })

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPExecuteStream_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewHTTPExecutor(5 * time.Second)
	err := e.ExecuteStream(context.Background(), &Request{}, httpModel(srv.URL), func(string) error { return nil })

	require.Error(t, err)
	assert.True(t, types.IsBackendError(err))
	assert.Contains(t, err.Error(), "502")
}
