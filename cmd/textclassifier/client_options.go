package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/textclassifier"
	"github.com/helixml/textclassifier/infrastructure/provider"
	"github.com/helixml/textclassifier/internal/config"
)

// clientOptions returns the textclassifier.Option slice derived from
// AppConfig: directories, taxonomy, tool defaults and embedding provider.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) ([]textclassifier.Option, error) {
	opts := []textclassifier.Option{
		textclassifier.WithDataDir(cfg.DataDir()),
		textclassifier.WithModelDir(cfg.ModelDir()),
		textclassifier.WithLogger(logger),
		textclassifier.WithDefaultTopK(cfg.DefaultTopK()),
		textclassifier.WithBatchTopK(cfg.BatchTopK()),
		textclassifier.WithBatchParallelism(cfg.BatchParallelism()),
		textclassifier.WithHashDimension(cfg.HashDimension()),
		textclassifier.WithProviderKind(cfg.Provider()),
	}

	if path := cfg.CategoriesFile(); path != "" {
		opts = append(opts, textclassifier.WithCategoriesFile(path))
	}

	embOpts, err := embeddingOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding config: %w", err)
	}
	opts = append(opts, embOpts...)

	return opts, nil
}

// embeddingOptions returns the OpenAI-compatible provider options when the
// embedding endpoint is configured and the provider kind allows it. It
// returns nothing otherwise, leaving the choice to the provider kind.
func embeddingOptions(cfg config.AppConfig) ([]textclassifier.Option, error) {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil {
		return nil, nil
	}
	if kind := cfg.Provider(); kind != config.ProviderAuto && kind != config.ProviderOpenAI {
		return nil, nil
	}

	openaiCfg := provider.OpenAIConfigFromEndpoint(*endpoint)

	var opts []textclassifier.Option
	if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
		transport, err := provider.NewCachingTransport(cacheDir, nil)
		if err != nil {
			return nil, err
		}
		openaiCfg.HTTPClient = &http.Client{
			Timeout:   endpoint.Timeout(),
			Transport: transport,
		}
		opts = append(opts, textclassifier.WithCloser(transport))
	}

	return append(opts, textclassifier.WithOpenAIConfig(openaiCfg)), nil
}

// newClient builds a Client from configuration.
func newClient(cfg config.AppConfig, logger *slog.Logger) (*textclassifier.Client, error) {
	opts, err := clientOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	client, err := textclassifier.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	return client, nil
}
