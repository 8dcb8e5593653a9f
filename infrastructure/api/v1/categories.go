package v1

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/textclassifier"
	"github.com/helixml/textclassifier/application/service"
	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/infrastructure/api/jsonapi"
	"github.com/helixml/textclassifier/infrastructure/api/middleware"
	"github.com/helixml/textclassifier/infrastructure/api/v1/dto"
)

// CategoriesRouter handles category management endpoints.
type CategoriesRouter struct {
	client     *textclassifier.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewCategoriesRouter creates a new CategoriesRouter.
func NewCategoriesRouter(client *textclassifier.Client) *CategoriesRouter {
	return &CategoriesRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for category endpoints.
func (r *CategoriesRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Add)
	router.Delete("/", r.Remove)
	router.Get("/{name}", r.Get)

	return router
}

// List handles GET /api/v1/categories.
func (r *CategoriesRouter) List(w http.ResponseWriter, req *http.Request) {
	summaries := r.client.Categories.List(req.Context())

	doc := jsonapi.NewListResponse(r.serializer.CategoryResources(summaries)).
		WithMeta(jsonapi.Meta{"total_categories": len(summaries)})
	middleware.WriteJSON(w, http.StatusOK, doc)
}

// Get handles GET /api/v1/categories/{name}.
func (r *CategoriesRouter) Get(w http.ResponseWriter, req *http.Request) {
	c, err := r.client.Registry().Get(chi.URLParam(req, "name"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(
		r.serializer.CategoryResource(service.Summary{Name: c.Name(), Description: c.Description()}),
	))
}

// Add handles POST /api/v1/categories. Each category is added or replaced
// independently and reported per item.
func (r *CategoriesRouter) Add(w http.ResponseWriter, req *http.Request) {
	var body dto.AddCategoriesRequest
	if err := decode(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if len(body.Data) == 0 {
		middleware.WriteError(w, req, fmt.Errorf("%w: data must list at least one category", category.ErrInvalidInput), r.logger)
		return
	}

	defs := make([]category.Definition, len(body.Data))
	for i, d := range body.Data {
		defs[i] = category.Definition{Name: d.Attributes.Name, Description: d.Attributes.Description}
	}

	items := r.client.Categories.BatchAdd(req.Context(), defs)

	succeeded := 0
	for _, item := range items {
		if item.Err == nil {
			succeeded++
		}
	}

	status := http.StatusOK
	if succeeded == 0 {
		status = http.StatusBadRequest
	}

	doc := jsonapi.NewListResponse(r.serializer.CategoryChangeResources(items)).
		WithMeta(jsonapi.Meta{
			"succeeded":        succeeded,
			"failed":           len(items) - succeeded,
			"total_categories": r.client.Categories.Count(),
		})
	middleware.WriteJSON(w, status, doc)
}

// Remove handles DELETE /api/v1/categories. Removing every category fails
// with 409 and leaves the taxonomy unchanged.
func (r *CategoriesRouter) Remove(w http.ResponseWriter, req *http.Request) {
	var body dto.RemoveCategoriesRequest
	if err := decode(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	if len(body.Names) == 0 {
		middleware.WriteError(w, req, fmt.Errorf("%w: names must not be empty", category.ErrInvalidInput), r.logger)
		return
	}

	results, err := r.client.Categories.Remove(req.Context(), body.Names)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	removed := make(map[string]bool, len(results))
	for name, result := range results {
		removed[name] = result.Removed
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewMetaResponse(jsonapi.Meta{
		"removed":          removed,
		"total_categories": r.client.Categories.Count(),
	}))
}
