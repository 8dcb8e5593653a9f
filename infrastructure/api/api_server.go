package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/textclassifier"
	v1 "github.com/helixml/textclassifier/infrastructure/api/v1"
)

// APIServer provides an HTTP API backed by a textclassifier Client: the REST
// API under /api/v1 and the MCP server over streamable HTTP (/mcp) and SSE
// (/sse, /messages and its alias /message).
type APIServer struct {
	client       *textclassifier.Client
	version      string
	corsOrigins  []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// APIServerOption configures an APIServer.
type APIServerOption func(*APIServer)

// WithVersion sets the version reported by the MCP server.
func WithVersion(version string) APIServerOption {
	return func(a *APIServer) {
		if version != "" {
			a.version = version
		}
	}
}

// WithCORSOrigins enables CORS for the given origins. "*" allows any origin.
func WithCORSOrigins(origins []string) APIServerOption {
	return func(a *APIServer) {
		a.corsOrigins = append([]string(nil), origins...)
	}
}

// NewAPIServer creates a new APIServer wired to the given Client.
func NewAPIServer(client *textclassifier.Client, opts ...APIServerOption) *APIServer {
	a := &APIServer{
		client:  client,
		version: "dev",
		logger:  client.Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up the REST and MCP routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	if len(a.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "X-Correlation-ID"},
			ExposedHeaders:   []string{"Mcp-Session-Id", "X-Correlation-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	classifyRouter := v1.NewClassifyRouter(c)
	categoriesRouter := v1.NewCategoriesRouter(c)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Mount("/classify", classifyRouter.Routes())
		r.Mount("/categories", categoriesRouter.Routes())
	})

	// MCP endpoints run without the timeout middleware: both transports
	// stream responses and manage their own headers.
	mcpSrv := c.MCPServer(a.version).MCPServer()
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv))

	sse := server.NewSSEServer(mcpSrv,
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/messages"),
	)
	router.Handle("/sse", sse.SSEHandler())
	router.Handle("/messages", sse.MessageHandler())
	// Older clients post to the singular path.
	router.Handle("/message", sse.MessageHandler())
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, WithServerLogger(a.logger))
	a.server = server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
