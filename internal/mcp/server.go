// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/textclassifier/application/service"
	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/internal/config"
)

// Resource URIs.
const (
	CategoriesURI = "categories://list"
	ModelInfoURI  = "model://info"
)

// Classifier provides classification operations for MCP tools.
type Classifier interface {
	ClassifyDetailed(ctx context.Context, text string, topK int) (service.Classification, error)
	BatchClassifyInputs(ctx context.Context, inputs []service.BatchInput, topK int) []service.BatchItem
}

// CategoryAdmin provides category management for MCP tools.
type CategoryAdmin interface {
	Add(ctx context.Context, name, description string) (service.AddResult, error)
	BatchAdd(ctx context.Context, defs []category.Definition) []service.AddItem
	Remove(ctx context.Context, names []string) (map[string]service.RemoveResult, error)
	List(ctx context.Context) []service.Summary
	Count() int
}

// ModelInfo describes the embedding model behind the server.
type ModelInfo struct {
	Provider  string
	Name      string
	Type      string
	Dimension int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultTopK sets the classify_text default for top_k.
func WithDefaultTopK(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.defaultTopK = n
		}
	}
}

// WithBatchTopK sets the batch_classify default for top_k.
func WithBatchTopK(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchTopK = n
		}
	}
}

// Server wraps the MCP server with classification tools.
type Server struct {
	mcpServer   *server.MCPServer
	classifier  Classifier
	categories  CategoryAdmin
	model       ModelInfo
	defaultTopK int
	batchTopK   int
	logger      *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(classifier Classifier, categories CategoryAdmin, model ModelInfo, version string, opts ...Option) *Server {
	s := &Server{
		classifier:  classifier,
		categories:  categories,
		model:       model,
		defaultTopK: config.DefaultTopK,
		batchTopK:   config.DefaultBatchTopK,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mcpServer := server.NewMCPServer(
		"textclassifier",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)
	s.registerPrompts(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("classify_text",
		mcp.WithDescription("Classify text into the registered categories using embedding similarity"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to classify"),
		),
		mcp.WithNumber("top_k",
			mcp.Description(fmt.Sprintf("Number of top categories to return (default: %d)", s.defaultTopK)),
			mcp.Min(1),
		),
	), s.handleClassify)

	mcpServer.AddTool(mcp.NewTool("batch_classify",
		mcp.WithDescription("Classify multiple texts at once"),
		mcp.WithArray("texts",
			mcp.Required(),
			mcp.Description("Texts to classify"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("top_k",
			mcp.Description(fmt.Sprintf("Number of top categories to return for each text (default: %d)", s.batchTopK)),
			mcp.Min(1),
		),
	), s.handleBatchClassify)

	mcpServer.AddTool(mcp.NewTool("add_custom_category",
		mcp.WithDescription("Add a new category, or replace the description of an existing one"),
		mcp.WithString("category_name",
			mcp.Required(),
			mcp.Description("Name of the category"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Description used to compute the category embedding"),
		),
	), s.handleAddCategory)

	mcpServer.AddTool(mcp.NewTool("batch_add_custom_categories",
		mcp.WithDescription("Add several categories at once; each item succeeds or fails on its own"),
		mcp.WithArray("categories",
			mcp.Required(),
			mcp.Description("Categories to add"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
				"required": []string{"name", "description"},
			}),
		),
	), s.handleBatchAddCategories)

	mcpServer.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List all available categories for classification"),
	), s.handleListCategories)

	mcpServer.AddTool(mcp.NewTool("remove_categories",
		mcp.WithDescription("Remove categories by name; at least one category always remains. Results are keyed by each name as given"),
		mcp.WithArray("names",
			mcp.Required(),
			mcp.Description("Names of the categories to remove"),
			mcp.WithStringItems(),
		),
	), s.handleRemoveCategories)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResource(mcp.NewResource(CategoriesURI, "categories",
		mcp.WithResourceDescription("Available text classification categories"),
		mcp.WithMIMEType("application/json"),
	), s.handleCategoriesResource)

	mcpServer.AddResource(mcp.NewResource(ModelInfoURI, "model_info",
		mcp.WithResourceDescription("Information about the embedding model"),
		mcp.WithMIMEType("application/json"),
	), s.handleModelInfoResource)
}

func (s *Server) registerPrompts(mcpServer *server.MCPServer) {
	mcpServer.AddPrompt(mcp.NewPrompt("classification_prompt",
		mcp.WithPromptDescription("Prompt template for text classification"),
		mcp.WithArgument("text",
			mcp.ArgumentDescription("The text to classify"),
			mcp.RequiredArgument(),
		),
	), s.handleClassificationPrompt)
}

type prediction struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return errorResult("text is required"), nil
	}
	topK := request.GetInt("top_k", s.defaultTopK)

	result, err := s.classifier.ClassifyDetailed(ctx, text, topK)
	if err != nil {
		s.logger.Error("classification failed", slog.Any("error", err))
		return errorResult(fmt.Sprintf("Classification failed: %v", err)), nil
	}

	predictions := make([]prediction, len(result.Predictions))
	for i, p := range result.Predictions {
		predictions[i] = prediction{
			Category:    p.Category,
			Confidence:  round4(p.Score),
			Description: p.Description,
		}
	}

	return jsonResult(struct {
		Text        string             `json:"text"`
		Predictions []prediction       `json:"predictions"`
		AllScores   map[string]float64 `json:"all_scores"`
	}{
		Text:        result.Text,
		Predictions: predictions,
		AllScores:   result.Scores,
	})
}

type batchClassifyItem struct {
	Index       int          `json:"index"`
	Text        string       `json:"text"`
	Predictions []prediction `json:"predictions,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func (s *Server) handleBatchClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.GetArguments()["texts"].([]any)
	if !ok {
		return errorResult("texts must be a list"), nil
	}
	topK := request.GetInt("top_k", s.batchTopK)

	inputs := batchInputs(raw)
	items := s.classifier.BatchClassifyInputs(ctx, inputs, topK)
	results := make([]batchClassifyItem, len(items))
	for i, item := range items {
		results[i] = batchClassifyItem{Index: item.Index, Text: item.Text}
		if item.Err != nil {
			results[i].Error = item.Err.Error()
			continue
		}
		results[i].Predictions = make([]prediction, len(item.Predictions))
		for j, p := range item.Predictions {
			results[i].Predictions[j] = prediction{Category: p.Category, Confidence: round4(p.Score)}
		}
	}

	return jsonResult(struct {
		BatchSize int                 `json:"batch_size"`
		Results   []batchClassifyItem `json:"results"`
	}{
		BatchSize: len(inputs),
		Results:   results,
	})
}

func (s *Server) handleAddCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("category_name", "")
	description := request.GetString("description", "")

	added, err := s.categories.Add(ctx, name, description)
	if err != nil {
		s.logger.Error("failed to add category", slog.String("name", name), slog.Any("error", err))
		return failure(fmt.Sprintf("Failed to add category: %v", err)), nil
	}

	return jsonResult(struct {
		Success         bool   `json:"success"`
		Message         string `json:"message"`
		Category        string `json:"category"`
		Description     string `json:"description"`
		Status          string `json:"status"`
		TotalCategories int    `json:"total_categories"`
	}{
		Success:         true,
		Message:         fmt.Sprintf("%s category '%s' successfully", verb(added.Status), added.Name),
		Category:        added.Name,
		Description:     added.Description,
		Status:          string(added.Status),
		TotalCategories: added.Total,
	})
}

type batchAddItem struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) handleBatchAddCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.GetArguments()["categories"].([]any)
	if !ok {
		return errorResult("categories must be a list of {name, description} objects"), nil
	}

	items := s.categories.BatchAdd(ctx, definitions(raw))

	results := make([]batchAddItem, len(items))
	failed := 0
	for i, item := range items {
		results[i] = batchAddItem{Index: item.Index, Name: item.Name}
		if item.Err != nil {
			results[i].Error = item.Err.Error()
			failed++
			continue
		}
		results[i].Description = item.Description
		results[i].Status = string(item.Status)
	}

	return jsonResult(struct {
		Succeeded       int            `json:"succeeded"`
		Failed          int            `json:"failed"`
		TotalCategories int            `json:"total_categories"`
		Results         []batchAddItem `json:"results"`
	}{
		Succeeded:       len(items) - failed,
		Failed:          failed,
		TotalCategories: s.categories.Count(),
		Results:         results,
	})
}

// batchInputs converts loosely typed texts. Entries that are not strings
// carry their own error so the rest of the batch is still classified.
func batchInputs(raw []any) []service.BatchInput {
	inputs := make([]service.BatchInput, len(raw))
	for i, item := range raw {
		text, ok := item.(string)
		if !ok {
			inputs[i].Err = fmt.Errorf("%w: texts[%d] is not a string", category.ErrInvalidInput, i)
			continue
		}
		inputs[i].Text = text
	}
	return inputs
}

// definitions converts loosely typed tool arguments. Items that are not
// objects become empty definitions so they fail validation on their own.
func definitions(raw []any) []category.Definition {
	defs := make([]category.Definition, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		description, _ := m["description"].(string)
		defs[i] = category.Definition{Name: name, Description: description}
	}
	return defs
}

type summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.categories.List(ctx)
	summaries := make([]summary, len(list))
	for i, c := range list {
		summaries[i] = summary{Name: c.Name, Description: c.Description}
	}

	return jsonResult(struct {
		TotalCategories int       `json:"total_categories"`
		Categories      []summary `json:"categories"`
	}{
		TotalCategories: len(summaries),
		Categories:      summaries,
	})
}

func (s *Server) handleRemoveCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := request.RequireStringSlice("names")
	if err != nil {
		return errorResult("names must be a list of strings"), nil
	}

	removed, err := s.categories.Remove(ctx, names)
	if err != nil {
		if errors.Is(err, category.ErrInvariantViolation) {
			s.logger.Warn("refused to remove every category", slog.Int("requested", len(names)))
		}
		return errorResult(fmt.Sprintf("Failed to remove categories: %v", err)), nil
	}

	type removal struct {
		Removed bool `json:"removed"`
	}
	out := make(map[string]removal, len(removed))
	for name, r := range removed {
		out[name] = removal{Removed: r.Removed}
	}
	return jsonResult(out)
}

func (s *Server) handleCategoriesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list := s.categories.List(ctx)
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}

	return resourceJSON(request.Params.URI, struct {
		ResourceType string   `json:"resource_type"`
		Description  string   `json:"description"`
		Categories   []string `json:"categories"`
		Total        int      `json:"total"`
	}{
		ResourceType: "categories",
		Description:  "Available text classification categories",
		Categories:   names,
		Total:        len(names),
	})
}

func (s *Server) handleModelInfoResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return resourceJSON(request.Params.URI, struct {
		ResourceType       string `json:"resource_type"`
		Provider           string `json:"provider"`
		ModelName          string `json:"model_name"`
		ModelType          string `json:"model_type"`
		Description        string `json:"description"`
		EmbeddingDimension int    `json:"embedding_dimension"`
		CategoriesLoaded   int    `json:"categories_loaded"`
	}{
		ResourceType:       "model_info",
		Provider:           s.model.Provider,
		ModelName:          s.model.Name,
		ModelType:          s.model.Type,
		Description:        "Embedding model used for text classification",
		EmbeddingDimension: s.model.Dimension,
		CategoriesLoaded:   s.categories.Count(),
	})
}

func (s *Server) handleClassificationPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := request.Params.Arguments["text"]
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", category.ErrInvalidInput)
	}

	return mcp.NewGetPromptResult(
		"Classify a text with the available categories",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(ClassificationPrompt(text, s.categories.List(ctx)))),
		},
	), nil
}

// ClassificationPrompt renders the prompt asking a model to classify text
// with the classify_text tool.
func ClassificationPrompt(text string, categories []service.Summary) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}

	var b strings.Builder
	b.WriteString("Please classify the following text using the available categories:\n\n")
	b.WriteString("Text: \"" + text + "\"\n\n")
	b.WriteString("Use the classify_text tool to analyze this text and provide:\n")
	b.WriteString("1. The most likely category\n")
	b.WriteString("2. Confidence scores for top categories\n")
	b.WriteString("3. Brief explanation of why this classification makes sense\n\n")
	b.WriteString("Available categories: ")
	b.WriteString(strings.Join(names, ", "))
	return b.String()
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func verb(status service.Status) string {
	if status == service.StatusUpdated {
		return "Updated"
	}
	return "Added"
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func errorResult(msg string) *mcp.CallToolResult {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return mcp.NewToolResultError(string(b))
}

func failure(msg string) *mcp.CallToolResult {
	b, _ := json.Marshal(map[string]any{"success": false, "error": msg})
	return mcp.NewToolResultError(string(b))
}

func resourceJSON(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
