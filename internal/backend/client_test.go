// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points a client at a test server with short timeouts.
func newTestClient(server *httptest.Server) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:       server.URL,
		Timeout:       5 * time.Second,
		SpeechTimeout: 5 * time.Second,
	})
}

func TestCheckHealthHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(Health{Status: "healthy", Ollama: "connected"})
	}))
	defer server.Close()

	health, err := newTestClient(server).CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy())
	assert.Equal(t, "connected", health.Ollama)
}

func TestCheckHealthDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Health{Status: "degraded", Ollama: "disconnected"})
	}))
	defer server.Close()

	health, err := newTestClient(server).CheckHealth(context.Background())
	require.NoError(t, err)
	assert.False(t, health.Healthy())
}

func TestCheckHealthBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server).CheckHealth(context.Background())
	require.Error(t, err)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrTypeConnection, clientErr.Type)
}

func TestCheckRunningOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	err := newTestClient(server).CheckRunning(context.Background())
	assert.True(t, IsNotRunning(err))
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/models", r.URL.Path)
		json.NewEncoder(w).Encode([]ModelInfo{{Name: "qwen2.5:7b"}, {Name: "llama3.2"}})
	}))
	defer server.Close()

	models, err := newTestClient(server).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "qwen2.5:7b", models[0].Name)
}

func TestChatStreamRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Message)
		assert.Equal(t, "qwen2.5:7b", req.Model)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: token\ndata: {\"token\": \"Hi\"}\n\n")
		io.WriteString(w, "event: token\ndata: {\"token\": \" there\"}\n\n")
		io.WriteString(w, "event: done\ndata: {\"done\": true}\n\n")
	}))
	defer server.Close()

	var tokens []string
	var done bool
	err := newTestClient(server).ChatStream(context.Background(), "hello", "qwen2.5:7b", func(event StreamEvent) {
		if event.Done {
			done = true
			return
		}
		tokens = append(tokens, event.Token)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hi", " there"}, tokens)
	assert.True(t, done)
}

func TestChatStreamUsesDefaultModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		io.WriteString(w, "event: done\ndata: {\"done\": true}\n\n")
	}))
	defer server.Close()

	client := newTestClient(server)
	client.SetModel("llama3.2")

	err := client.ChatStream(context.Background(), "hi", "", func(StreamEvent) {})
	require.NoError(t, err)
}

func TestChatStreamErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "event: error\ndata: {\"error\": \"out of memory\"}\n\n")
	}))
	defer server.Close()

	var fromCallback error
	err := newTestClient(server).ChatStream(context.Background(), "hi", "", func(event StreamEvent) {
		if event.Error != nil {
			fromCallback = event.Error
		}
	})

	require.Error(t, err)
	assert.Equal(t, err, fromCallback)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrTypeGeneration, clientErr.Type)
	assert.Equal(t, "out of memory", clientErr.Message)
}

func TestChatStreamNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "model not loaded"})
	}))
	defer server.Close()

	err := newTestClient(server).ChatStream(context.Background(), "hi", "", func(StreamEvent) {
		t.Fatal("no events expected for a failed request")
	})

	require.Error(t, err)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrTypeInvalidRequest, clientErr.Type)
	assert.Equal(t, "model not loaded", clientErr.Message)
}

func TestChatStreamChan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "event: token\ndata: {\"token\": \"a\"}\n\n")
		io.WriteString(w, "event: done\ndata: {\"done\": true}\n\n")
	}))
	defer server.Close()

	ch := newTestClient(server).ChatStreamChan(context.Background(), "hi", "")

	var events []StreamEvent
	for event := range ch {
		events = append(events, event)
	}

	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Token)
	assert.True(t, events[1].Done)
}

func TestChatStreamChanTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	ch := newTestClient(server).ChatStreamChan(context.Background(), "hi", "")

	var events []StreamEvent
	for event := range ch {
		events = append(events, event)
	}

	require.Len(t, events, 1)
	assert.True(t, IsNotRunning(events[0].Error))
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/stt/transcribe", r.URL.Path)

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "recording.wav", header.Filename)

		payload, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("RIFF-wav-bytes"), payload)

		json.NewEncoder(w).Encode(Transcription{Text: "turn on the lights"})
	}))
	defer server.Close()

	text, err := newTestClient(server).Transcribe(context.Background(), []byte("RIFF-wav-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "turn on the lights", text)
}

func TestTranscribeNoSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Transcription{Text: "", Warning: "no speech detected"})
	}))
	defer server.Close()

	_, err := newTestClient(server).Transcribe(context.Background(), []byte("silence"))
	assert.True(t, IsNoSpeech(err))
}

func TestTranscribeEmptyAudio(t *testing.T) {
	_, err := NewClient().Transcribe(context.Background(), nil)
	require.Error(t, err)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrTypeInvalidRequest, clientErr.Type)
}

func TestChangeWhisperModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stt/change-model", r.URL.Path)
		assert.Equal(t, "base.en", r.URL.Query().Get("model_size"))
		json.NewEncoder(w).Encode(SttModelResponse{Status: "ok", Model: "base.en"})
	}))
	defer server.Close()

	err := newTestClient(server).ChangeWhisperModel(context.Background(), "base.en")
	require.NoError(t, err)
}

func TestSynthesize(t *testing.T) {
	wav := []byte{'R', 'I', 'F', 'F', 0, 1, 2, 3}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tts/synthesize", r.URL.Path)

		var req SynthesizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Hello.", req.Text)
		assert.Equal(t, "amy", req.Voice)

		w.Write(wav)
	}))
	defer server.Close()

	audio, err := newTestClient(server).Synthesize(context.Background(), "Hello.", "amy")
	require.NoError(t, err)
	assert.Equal(t, wav, audio)
}

func TestSynthesizeEmptyText(t *testing.T) {
	_, err := NewClient().Synthesize(context.Background(), "", "amy")
	require.Error(t, err)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrTypeInvalidRequest, clientErr.Type)
}

func TestSynthesizeDefaultVoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SynthesizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "default", req.Voice)
		w.Write([]byte{0})
	}))
	defer server.Close()

	_, err := newTestClient(server).Synthesize(context.Background(), "Hi.", "")
	require.NoError(t, err)
}

func TestListVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tts/voices", r.URL.Path)
		json.NewEncoder(w).Encode(VoicesResponse{Voices: []Voice{
			{ID: "amy", Name: "Amy", Language: "en-US"},
			{ID: "alan", Name: "Alan", Language: "en-GB"},
		}})
	}))
	defer server.Close()

	voices, err := newTestClient(server).ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "amy", voices[0].ID)
	assert.Equal(t, "en-GB", voices[1].Language)
}

func TestDecodeErrorPrefersDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "unsupported audio format"})
	}))
	defer server.Close()

	_, err := newTestClient(server).Transcribe(context.Background(), []byte("oops"))
	require.Error(t, err)
	assert.Equal(t, "unsupported audio format", err.Error())
}

func TestDecodeErrorFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "gateway busy")
	}))
	defer server.Close()

	_, err := newTestClient(server).ListModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list models")
}

func TestClientConfigDefaults(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{})
	cfg := client.GetConfig()

	assert.Equal(t, "http://127.0.0.1:8000", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 120*time.Second, cfg.SpeechTimeout)
	assert.Equal(t, "", client.GetDefaultModel())
}

func TestSetModel(t *testing.T) {
	client := NewClient()
	client.SetModel("qwen2.5:7b")
	assert.Equal(t, "qwen2.5:7b", client.GetDefaultModel())
}
