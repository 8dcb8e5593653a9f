package jsonapi

import (
	"math"
	"strconv"

	"github.com/helixml/textclassifier/application/service"
)

// Resource types.
const (
	TypeClassification = "classification"
	TypeCategory       = "category"
	TypeCategoryChange = "category_change"
)

// PredictionAttributes is one ranked category.
type PredictionAttributes struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description,omitempty"`
}

// ClassificationAttributes represents a classified text.
type ClassificationAttributes struct {
	Index       *int                   `json:"index,omitempty"`
	Text        string                 `json:"text"`
	Predictions []PredictionAttributes `json:"predictions,omitempty"`
	AllScores   map[string]float64     `json:"all_scores,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// CategoryAttributes represents a registered category.
type CategoryAttributes struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryChangeAttributes represents the outcome of adding one category.
type CategoryChangeAttributes struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Serializer converts service results into JSON:API resources.
type Serializer struct{}

// NewSerializer creates a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// ClassificationResource converts a detailed classification. id identifies
// the request.
func (s *Serializer) ClassificationResource(id string, c service.Classification) *Resource {
	scores := make(map[string]float64, len(c.Scores))
	for name, score := range c.Scores {
		scores[name] = Round(score)
	}
	return NewResource(TypeClassification, id, ClassificationAttributes{
		Text:        c.Text,
		Predictions: s.predictions(c.Predictions, true),
		AllScores:   scores,
	})
}

// BatchResources converts batch classification items. Resource ids are the
// item indexes.
func (s *Serializer) BatchResources(items []service.BatchItem) []*Resource {
	resources := make([]*Resource, len(items))
	for i, item := range items {
		attrs := ClassificationAttributes{Index: &item.Index, Text: item.Text}
		if item.Err != nil {
			attrs.Error = item.Err.Error()
		} else {
			attrs.Predictions = s.predictions(item.Predictions, false)
		}
		resources[i] = NewResource(TypeClassification, strconv.Itoa(item.Index), attrs)
	}
	return resources
}

// CategoryResource converts a category summary. The id is the category name.
func (s *Serializer) CategoryResource(summary service.Summary) *Resource {
	return NewResource(TypeCategory, summary.Name, CategoryAttributes{
		Name:        summary.Name,
		Description: summary.Description,
	})
}

// CategoryResources converts category summaries.
func (s *Serializer) CategoryResources(summaries []service.Summary) []*Resource {
	resources := make([]*Resource, len(summaries))
	for i, summary := range summaries {
		resources[i] = s.CategoryResource(summary)
	}
	return resources
}

// CategoryChangeResources converts batch add items.
func (s *Serializer) CategoryChangeResources(items []service.AddItem) []*Resource {
	resources := make([]*Resource, len(items))
	for i, item := range items {
		attrs := CategoryChangeAttributes{
			Index:       item.Index,
			Name:        item.Name,
			Description: item.Description,
		}
		if item.Err != nil {
			attrs.Error = item.Err.Error()
		} else {
			attrs.Status = string(item.Status)
		}
		resources[i] = NewResource(TypeCategoryChange, strconv.Itoa(item.Index), attrs)
	}
	return resources
}

func (s *Serializer) predictions(predictions []service.Prediction, withDescription bool) []PredictionAttributes {
	out := make([]PredictionAttributes, len(predictions))
	for i, p := range predictions {
		out[i] = PredictionAttributes{Category: p.Category, Confidence: Round(p.Score)}
		if withDescription {
			out[i].Description = p.Description
		}
	}
	return out
}

// Round rounds a score to four decimal places.
func Round(v float64) float64 {
	return math.Round(v*10000) / 10000
}
