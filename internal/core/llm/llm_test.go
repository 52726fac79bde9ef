package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/baboon-api/internal/core"
)

func TestOpenAIImager_ReturnsURL(t *testing.T) {
	var got imageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"url":"https://images.example.com/baboon.png"}]}`))
	}))
	defer srv.Close()

	c, err := newOpenAIImager(srv.URL, "sk-test", "")
	require.NoError(t, err)

	url, err := c.GenerateImage(context.Background(), "a baboon")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.com/baboon.png", url)
	assert.Equal(t, "dall-e-3", got.Model)
	assert.Equal(t, "a baboon", got.Prompt)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, "url", got.ResponseFormat)
}

func TestOpenAIImager_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := newOpenAIImager(srv.URL, "sk-test", "dall-e-2")
	require.NoError(t, err)

	_, err = c.GenerateImage(context.Background(), "a baboon")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "content policy")
}

func TestOpenAIImager_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c, err := newOpenAIImager(srv.URL, "sk-test", "")
	require.NoError(t, err)
	_, err = c.GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
}

func TestNewOpenAIImager_RequiresKey(t *testing.T) {
	_, err := NewOpenAIImager(" ", "")
	require.Error(t, err)
}

func TestGeminiImager_RequestsImageModality(t *testing.T) {
	var (
		path string
		got  map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[
			{"text":"here is your baboon"},
			{"inlineData":{"mimeType":"image/png","data":"AQID"}}
		]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g, err := newGeminiImager(srv.URL, "g-key", "")
	require.NoError(t, err)

	url, err := g.GenerateImage(context.Background(), "a baboon")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", url)
	assert.Equal(t, "/models/gemini-2.0-flash-preview-image-generation:generateContent", path)

	gen, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"TEXT", "IMAGE"}, gen["responseModalities"])

	contents, ok := got["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "a baboon", parts[0].(map[string]any)["text"])
}

func TestGeminiImager_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"The requested combination of response modalities is not supported","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	g, err := newGeminiImager(srv.URL, "g-key", "some-model")
	require.NoError(t, err)

	_, err = g.GenerateImage(context.Background(), "a baboon")
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "response modalities")
}

func TestGeminiImager_TextOnlyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"I cannot draw that"}]}}]}`))
	}))
	defer srv.Close()

	g, err := newGeminiImager(srv.URL, "g-key", "")
	require.NoError(t, err)
	_, err = g.GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
}

func TestNewGeminiImager_RequiresKey(t *testing.T) {
	_, err := NewGeminiImager("", "")
	require.Error(t, err)
}

func TestFirstImage(t *testing.T) {
	_, err := firstImage(&generateResponse{})
	assert.ErrorIs(t, err, core.ErrGenerationFailed)

	_, err = firstImage(nil)
	assert.ErrorIs(t, err, core.ErrGenerationFailed)
}
