// Package dto holds request and response bodies of the v1 REST API.
package dto

import (
	"encoding/json"

	"github.com/helixml/textclassifier/infrastructure/api/jsonapi"
)

// ClassifyAttributes represents classify request attributes in JSON:API format.
type ClassifyAttributes struct {
	Text string `json:"text"`
	TopK *int   `json:"top_k,omitempty"`
}

// ClassifyData represents classify request data in JSON:API format.
type ClassifyData struct {
	Type       string             `json:"type"`
	Attributes ClassifyAttributes `json:"attributes"`
}

// ClassifyRequest represents a JSON:API classify request.
type ClassifyRequest struct {
	Data ClassifyData `json:"data"`
}

// BatchClassifyAttributes represents batch classify request attributes.
// Texts stay raw so one malformed entry does not reject the whole batch.
type BatchClassifyAttributes struct {
	Texts []json.RawMessage `json:"texts"`
	TopK  *int              `json:"top_k,omitempty"`
}

// BatchClassifyData represents batch classify request data.
type BatchClassifyData struct {
	Type       string                  `json:"type"`
	Attributes BatchClassifyAttributes `json:"attributes"`
}

// BatchClassifyRequest represents a JSON:API batch classify request.
type BatchClassifyRequest struct {
	Data BatchClassifyData `json:"data"`
}

// ClassificationData is a classification resource in a response.
type ClassificationData struct {
	Type       string                           `json:"type"`
	ID         string                           `json:"id"`
	Attributes jsonapi.ClassificationAttributes `json:"attributes"`
}

// ClassifyResponse represents the response to a classify request.
type ClassifyResponse struct {
	Data ClassificationData `json:"data"`
}

// BatchClassifyResponse represents the response to a batch classify request.
type BatchClassifyResponse struct {
	Data []ClassificationData `json:"data"`
	Meta jsonapi.Meta         `json:"meta"`
}
