package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helixml/textclassifier/application/service"
	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/domain/search"
	"github.com/helixml/textclassifier/infrastructure/provider"
)

const fakeDimension = 128

// fakeOpenAI serves POST /v1/embeddings with hashed bag-of-words vectors, so
// texts sharing words score high like they would against a real model.
type fakeOpenAI struct {
	*httptest.Server

	calls atomic.Int64
	// failures answers the next N requests with status.
	failures atomic.Int64
	status   int
	// empty answers the next N requests with HTTP 200 and no vectors.
	empty atomic.Int64
	// truncate drops the last vector from the next N responses.
	truncate atomic.Int64

	mu     sync.Mutex
	models []string
	auth   []string
	inputs [][]string
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()

	f := &fakeOpenAI{status: http.StatusServiceUnavailable}
	hash := provider.NewHashEmbedding(fakeDimension)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.models = append(f.models, body.Model)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.inputs = append(f.inputs, body.Input)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if f.failures.Add(-1) >= 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		f.failures.Store(0)

		data := []map[string]any{}
		promptTokens := 0
		if f.empty.Add(-1) >= 0 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   data,
				"model":  "",
				"usage":  map[string]int{"prompt_tokens": 0, "total_tokens": 0},
			})
			return
		}
		f.empty.Store(0)

		resp, err := hash.Embed(r.Context(), provider.NewEmbeddingRequest(body.Input))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		vectors := resp.Embeddings()
		if f.truncate.Add(-1) >= 0 {
			vectors = vectors[:len(vectors)-1]
		} else {
			f.truncate.Store(0)
		}
		for i, vector := range vectors {
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vector})
			promptTokens += len(body.Input[i])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": promptTokens, "total_tokens": promptTokens},
		})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOpenAI) baseURL() string { return f.URL + "/v1" }

func (f *fakeOpenAI) requests() (models, auth []string, inputs [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.models...), append([]string(nil), f.auth...), append([][]string(nil), f.inputs...)
}

// openAIConfig points a provider at the fake with retries fast enough for tests.
func (f *fakeOpenAI) openAIConfig() provider.OpenAIConfig {
	return provider.OpenAIConfig{
		APIKey:         "sk-test",
		BaseURL:        f.baseURL(),
		EmbeddingModel: "text-embedding-3-small",
		InitialDelay:   time.Millisecond,
	}
}

// classifierStack is the service wiring the Client builds, on a given provider.
type classifierStack struct {
	categories *service.Categories
	classifier *service.Classifier
	registry   *category.Registry
}

func newClassifierStack(t *testing.T, p provider.Embedder) classifierStack {
	t.Helper()
	ctx := context.Background()

	embedder := provider.NewSearchEmbedder(p)
	dimension, err := search.DetectDimension(ctx, embedder)
	require.NoError(t, err)

	registry := category.NewRegistry(dimension)
	categories := service.NewCategories(registry, embedder)
	require.NoError(t, categories.Seed(ctx, category.Defaults()))

	return classifierStack{
		categories: categories,
		classifier: service.NewClassifier(registry, embedder),
		registry:   registry,
	}
}
