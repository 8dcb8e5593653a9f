package dto

import "github.com/helixml/textclassifier/infrastructure/api/jsonapi"

// CategoryData is a category resource.
type CategoryData struct {
	Type       string                     `json:"type"`
	ID         string                     `json:"id,omitempty"`
	Attributes jsonapi.CategoryAttributes `json:"attributes"`
}

// CategoryResponse represents a single category response.
type CategoryResponse struct {
	Data CategoryData `json:"data"`
}

// CategoryListResponse represents a list of categories.
type CategoryListResponse struct {
	Data []CategoryData `json:"data"`
	Meta jsonapi.Meta   `json:"meta"`
}

// AddCategoriesRequest adds or replaces categories. Each item is embedded and
// applied independently.
type AddCategoriesRequest struct {
	Data []CategoryData `json:"data"`
}

// CategoryChangeData is the outcome of one add.
type CategoryChangeData struct {
	Type       string                           `json:"type"`
	ID         string                           `json:"id"`
	Attributes jsonapi.CategoryChangeAttributes `json:"attributes"`
}

// AddCategoriesResponse represents the response to an add request.
type AddCategoriesResponse struct {
	Data []CategoryChangeData `json:"data"`
	Meta jsonapi.Meta         `json:"meta"`
}

// RemoveCategoriesRequest names the categories to remove.
type RemoveCategoriesRequest struct {
	Names []string `json:"names"`
}

// RemoveCategoriesResponse reports per name whether it was removed.
type RemoveCategoriesResponse struct {
	Meta struct {
		Removed         map[string]bool `json:"removed"`
		TotalCategories int             `json:"total_categories"`
	} `json:"meta"`
}
