package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

type capturedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// newTestServer serves the embeddings endpoint, answering each input
// with a 3-dim vector keyed off its batch position. Responses list the
// data out of order to exercise index-based reassembly.
func newTestServer(t *testing.T, calls *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req capturedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*calls = append(*calls, req)

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			// Reverse order in the response body.
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     j,
				"embedding": []float32{float32(j), 0, 1},
			}
		}
		resp := map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 7, "total_tokens": 7},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newTestService(t *testing.T, baseURL string, batchSize int) *EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(Config{
		APIKey:            "test-key",
		BaseURL:           baseURL + "/v1",
		BatchSize:         batchSize,
		RequestsPerMinute: 600000,
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
	assert.Equal(t, domain.DefaultEmbeddingBatchSize, svc.batchSize)
}

func TestEmbedBatch_SplitsAndReassembles(t *testing.T) {
	var calls []capturedRequest
	server := newTestServer(t, &calls)
	defer server.Close()

	svc := newTestService(t, server.URL, 2)

	texts := []string{"a", "b", "c", "d", "e"}
	result, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, calls, 3, "5 texts at batch size 2 should take 3 requests")
	assert.Equal(t, []string{"a", "b"}, calls[0].Input)
	assert.Equal(t, []string{"c", "d"}, calls[1].Input)
	assert.Equal(t, []string{"e"}, calls[2].Input)

	require.Len(t, result.Vectors, 5)
	for i, vec := range result.Vectors {
		batchPos := i % 2
		assert.Equal(t, []float32{float32(batchPos), 0, 1}, vec, "vector %d", i)
	}
	assert.Equal(t, 21, result.TotalTokens, "usage summed across 3 requests")
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, "http://unused.invalid", 2)
	result, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Vectors)
	assert.Zero(t, result.TotalTokens)
}

func TestEmbedBatch_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer server.Close()

	svc := newTestService(t, server.URL, 2)
	_, err := svc.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestEmbed_SingleText(t *testing.T) {
	var calls []capturedRequest
	server := newTestServer(t, &calls)
	defer server.Close()

	svc := newTestService(t, server.URL, 2)

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, vec)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"hello"}, calls[0].Input)
}

func TestEmbedBatch_SendsDimensionsForV3Models(t *testing.T) {
	var calls []capturedRequest
	server := newTestServer(t, &calls)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL + "/v1",
		Model:             "text-embedding-3-small",
		Dimensions:        256,
		RequestsPerMinute: 600000,
	})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, 256, calls[0].Dimensions)
}
