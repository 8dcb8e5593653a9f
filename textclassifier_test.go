package textclassifier_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/textclassifier"
	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/infrastructure/provider"
	"github.com/helixml/textclassifier/internal/config"
)

func newHashClient(t *testing.T, opts ...textclassifier.Option) *textclassifier.Client {
	t.Helper()

	opts = append([]textclassifier.Option{
		textclassifier.WithDataDir(t.TempDir()),
		textclassifier.WithHashEmbedding(128),
	}, opts...)

	client, err := textclassifier.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNew_SeedsDefaultCategories(t *testing.T) {
	client := newHashClient(t)

	assert.Equal(t, len(category.Defaults()), client.Registry().Len())
	assert.Equal(t, 128, client.Registry().Dimension())

	info := client.Info()
	assert.Equal(t, "hash", info.Provider)
	assert.Equal(t, 128, info.Dimension)
	assert.NotEmpty(t, info.Type)
}

func TestNew_AutoFallsBackToHash(t *testing.T) {
	client, err := textclassifier.New(
		textclassifier.WithDataDir(t.TempDir()),
		textclassifier.WithModelDir(t.TempDir()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, "hash", client.Info().Provider)
	assert.Equal(t, config.DefaultHashDimension, client.Info().Dimension)
}

func TestNew_HugotWithoutModel(t *testing.T) {
	_, err := textclassifier.New(
		textclassifier.WithModelDir(t.TempDir()),
		textclassifier.WithHugot(),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, textclassifier.ErrNoProvider)
	assert.ErrorIs(t, err, provider.ErrModelUnavailable)
}

func TestNew_OpenAIWithoutEndpoint(t *testing.T) {
	_, err := textclassifier.New(textclassifier.WithProviderKind(config.ProviderOpenAI))
	assert.ErrorIs(t, err, textclassifier.ErrNoProvider)
}

func TestNew_WithCategories(t *testing.T) {
	client := newHashClient(t, textclassifier.WithCategories([]category.Definition{
		{Name: "Cats", Description: "felines, kittens, purring"},
		{Name: "dogs", Description: "puppies, barking, fetch"},
	}))

	summaries := client.Categories.List(context.Background())
	require.Len(t, summaries, 2)
	assert.Equal(t, "cats", summaries[0].Name)
	assert.Equal(t, "dogs", summaries[1].Name)
}

func TestNew_WithCategoriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	content := `categories:
  - name: billing
    description: invoices, payments, refunds
  - name: shipping
    description: delivery, parcels, tracking numbers
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	client := newHashClient(t, textclassifier.WithCategoriesFile(path))

	assert.Equal(t, 2, client.Registry().Len())
	assert.True(t, client.Registry().Exists("Billing"))
}

func TestNew_WithMissingCategoriesFile(t *testing.T) {
	_, err := textclassifier.New(
		textclassifier.WithHashEmbedding(16),
		textclassifier.WithCategoriesFile(filepath.Join(t.TempDir(), "missing.yaml")),
	)
	require.Error(t, err)
}

func TestNew_DimensionFailureClosesProvider(t *testing.T) {
	p := &failingProvider{}

	_, err := textclassifier.New(textclassifier.WithEmbeddingProvider(p))
	require.Error(t, err)
	assert.True(t, p.closed)
}

func TestClient_ClassifyAfterAdd(t *testing.T) {
	client := newHashClient(t)
	ctx := context.Background()

	result, err := client.Categories.Add(ctx, "Astronomy", "telescopes galaxies nebulae orbits")
	require.NoError(t, err)
	assert.Equal(t, "astronomy", result.Name)

	predictions, err := client.Classifier.Classify(ctx, "telescopes galaxies nebulae orbits", 3)
	require.NoError(t, err)
	require.Len(t, predictions, 3)
	assert.Equal(t, "astronomy", predictions[0].Category)
	assert.InDelta(t, 1.0, predictions[0].Score, 1e-9)
}

func TestClient_RemoveAllFails(t *testing.T) {
	client := newHashClient(t)
	ctx := context.Background()

	names := make([]string, 0, client.Registry().Len())
	for _, s := range client.Categories.List(ctx) {
		names = append(names, s.Name)
	}

	_, err := client.Categories.Remove(ctx, names)
	assert.ErrorIs(t, err, category.ErrInvariantViolation)
	assert.Equal(t, len(names), client.Registry().Len())
}

func TestClient_TopKDefaults(t *testing.T) {
	client := newHashClient(t,
		textclassifier.WithDefaultTopK(5),
		textclassifier.WithBatchTopK(2),
	)

	assert.Equal(t, 5, client.DefaultTopK())
	assert.Equal(t, 2, client.BatchTopK())
	assert.NotNil(t, client.MCPServer("test").MCPServer())
}

func TestClient_Close_Idempotent(t *testing.T) {
	client, err := textclassifier.New(
		textclassifier.WithDataDir(t.TempDir()),
		textclassifier.WithHashEmbedding(16),
	)
	require.NoError(t, err)

	err = client.Close()
	assert.NoError(t, err)

	err = client.Close()
	assert.ErrorIs(t, err, textclassifier.ErrClientClosed)
}

func TestClient_CloseClosesRegisteredResources(t *testing.T) {
	closer := &recordingCloser{}
	client, err := textclassifier.New(
		textclassifier.WithHashEmbedding(16),
		textclassifier.WithCloser(closer),
	)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	assert.True(t, closer.closed)
}

type failingProvider struct {
	closed bool
}

func (p *failingProvider) Embed(context.Context, provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	return provider.EmbeddingResponse{}, errors.New("endpoint unreachable")
}

func (p *failingProvider) Name() string  { return "failing" }
func (p *failingProvider) Model() string { return "none" }

func (p *failingProvider) Close() error {
	p.closed = true
	return nil
}

type recordingCloser struct {
	closed bool
}

func (c *recordingCloser) Close() error {
	c.closed = true
	return nil
}
