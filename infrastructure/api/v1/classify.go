// Package v1 implements the version 1 REST API.
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/helixml/textclassifier"
	"github.com/helixml/textclassifier/application/service"
	"github.com/helixml/textclassifier/domain/category"
	"github.com/helixml/textclassifier/infrastructure/api/jsonapi"
	"github.com/helixml/textclassifier/infrastructure/api/middleware"
	"github.com/helixml/textclassifier/infrastructure/api/v1/dto"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// ClassifyRouter handles classification endpoints.
type ClassifyRouter struct {
	client     *textclassifier.Client
	serializer *jsonapi.Serializer
	logger     *slog.Logger
}

// NewClassifyRouter creates a new ClassifyRouter.
func NewClassifyRouter(client *textclassifier.Client) *ClassifyRouter {
	return &ClassifyRouter{
		client:     client,
		serializer: jsonapi.NewSerializer(),
		logger:     client.Logger(),
	}
}

// Routes returns the chi router for classification endpoints.
func (r *ClassifyRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Classify)
	router.Post("/batch", r.BatchClassify)

	return router
}

// Classify handles POST /api/v1/classify.
func (r *ClassifyRouter) Classify(w http.ResponseWriter, req *http.Request) {
	var body dto.ClassifyRequest
	if err := decode(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	attrs := body.Data.Attributes
	topK := r.client.DefaultTopK()
	if attrs.TopK != nil {
		topK = *attrs.TopK
	}

	result, err := r.client.Classifier.ClassifyDetailed(req.Context(), attrs.Text, topK)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, jsonapi.NewSingleResponse(
		r.serializer.ClassificationResource(uuid.NewString(), result),
	))
}

// BatchClassify handles POST /api/v1/classify/batch. Every text is
// classified independently; failures are reported per item.
func (r *ClassifyRouter) BatchClassify(w http.ResponseWriter, req *http.Request) {
	var body dto.BatchClassifyRequest
	if err := decode(w, req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	attrs := body.Data.Attributes
	if len(attrs.Texts) == 0 {
		middleware.WriteError(w, req, fmt.Errorf("%w: texts must not be empty", category.ErrInvalidInput), r.logger)
		return
	}
	topK := r.client.BatchTopK()
	if attrs.TopK != nil {
		topK = *attrs.TopK
	}

	items := r.client.Classifier.BatchClassifyInputs(req.Context(), batchInputs(attrs.Texts), topK)

	doc := jsonapi.NewListResponse(r.serializer.BatchResources(items)).
		WithMeta(jsonapi.Meta{"batch_size": len(items)})
	middleware.WriteJSON(w, http.StatusOK, doc)
}

func batchInputs(texts []json.RawMessage) []service.BatchInput {
	inputs := make([]service.BatchInput, len(texts))
	for i, raw := range texts {
		if err := json.Unmarshal(raw, &inputs[i].Text); err != nil {
			inputs[i].Err = fmt.Errorf("%w: texts[%d] is not a string", category.ErrInvalidInput, i)
		}
	}
	return inputs
}

func decode(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err)
	}
	return nil
}
