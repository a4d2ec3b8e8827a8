package model

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, h http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	o, err := NewOpenAI(OpenAIConfig{
		APIKey:          "sk-test",
		BaseURL:         srv.URL + "/",
		EmbedModel:      "text-embedding-3-small",
		ChatModel:       "gpt-4o",
		TranscribeModel: "whisper-1",
		TTSModel:        "gpt-4o-mini-tts",
		Voice:           "alloy",
	}, srv.Client())
	require.NoError(t, err)
	return o
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{APIKey: "  "}, nil)
	assert.Error(t, err)
}

func TestOpenAIEmbed(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, "Some Chunk", req.Input)

		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	})

	vec, err := o.Embed(context.Background(), "Some Chunk")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIGenerate(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be brief", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Write([]byte(`{"choices":[{"message":{"content":"  Paris.\n"}}]}`))
	})

	out, err := o.Generate(context.Background(), "be brief", "capital?")
	require.NoError(t, err)
	assert.Equal(t, "Paris.", out)
}

func TestOpenAIErrorStatus(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := o.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = o.Generate(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestOpenAIEmptyResults(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"choices":[]}`))
	})

	_, err := o.Embed(context.Background(), "x")
	assert.Error(t, err)
	_, err = o.Generate(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestOpenAITranscribe(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "question.webm", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("RIFF"), data)

		w.Write([]byte(`{"text":" What is the capital of France? "}`))
	})

	text, err := o.Transcribe(context.Background(), "question.webm", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", text)
}

func TestOpenAISynthesize(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)

		var req openAISpeechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openAISpeechRequest{Model: "gpt-4o-mini-tts", Voice: "alloy", Input: "Paris.", ResponseFormat: "mp3"}, req)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte{0x49, 0x44, 0x33})
	})

	audio, err := o.Synthesize(context.Background(), "Paris.")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x49, 0x44, 0x33}, audio)
}
