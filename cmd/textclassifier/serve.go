package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixml/textclassifier/infrastructure/api"
	apimiddleware "github.com/helixml/textclassifier/infrastructure/api/middleware"
	"github.com/helixml/textclassifier/internal/config"
	"github.com/helixml/textclassifier/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server: REST API under /api/v1, MCP over streamable HTTP
at /mcp and over SSE at /sse and /messages (alias /message).

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env files: --env-file (or ./.env), then {DATA_DIR}/.env; the first
     file to set a variable wins
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 127.0.0.1)
  PORT                         Server port to listen on (default: 8000)
  DATA_DIR                     Data directory (default: ~/.textclassifier)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  EMBEDDING_PROVIDER           auto, hugot, openai, hash (default: auto)
  MODEL_DIR                    Local model directory (default: {DATA_DIR}/models)
  HASH_DIMENSION               Hash embedder dimension (default: 256)
  CATEGORIES_FILE              YAML taxonomy replacing the built-in categories
  DEFAULT_TOP_K                classify_text default top_k (default: 3)
  BATCH_TOP_K                  batch_classify default top_k (default: 1)
  BATCH_PARALLELISM            Concurrent embeddings per batch (default: 4)
  HTTP_CACHE_DIR               Cache embedding HTTP responses on disk
  CORS_ALLOWED_ORIGINS         Comma-separated allowed origins (default: *)

  EMBEDDING_ENDPOINT_*         OpenAI-compatible embedding endpoint
    BASE_URL                   Base URL (e.g., https://api.openai.com/v1)
    MODEL                      Model identifier (e.g., text-embedding-3-small)
    API_KEY                    API key for authentication
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 0)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 127.0.0.1)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8000)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting textclassifier", attrs...)

	client, err := newClient(cfg, slogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close classifier", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client,
		api.WithVersion(version),
		api.WithCORSOrigins(cfg.CORSAllowedOrigins()),
	)
	router := apiServer.Router()

	// Custom middleware MUST be added before MountRoutes
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(logger.Component("http")))

	apiServer.MountRoutes()

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)
	router.Get("/", infoHandler)

	server := api.NewServer(cfg.Addr(),
		api.WithServerLogger(slogger),
		api.WithShutdownTimeout(api.DefaultShutdownTimeout),
	)
	server.Router().Mount("/", router)

	ln, err := net.Listen("tcp", server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr(), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, ln); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slogger.Info("server stopped")

	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func infoHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "textclassifier",
		"version": version,
		"endpoints": map[string]string{
			"api": "/api/v1",
			"mcp": "/mcp",
			"sse": "/sse",
		},
	})
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
