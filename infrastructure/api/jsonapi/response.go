// Package jsonapi provides JSON:API specification compliant types for API responses.
package jsonapi

// Document represents a JSON:API top-level document.
// See: https://jsonapi.org/format/#document-structure
type Document struct {
	Data     any     `json:"data"`
	Meta     *Meta   `json:"meta,omitempty"`
	Links    *Links  `json:"links,omitempty"`
	Included []any   `json:"included,omitempty"`
	Errors   []Error `json:"errors,omitempty"`
}

// Meta holds non-standard meta-information about a document.
type Meta map[string]any

// Links holds links associated with a document or resource.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// Resource represents a JSON:API resource object.
// See: https://jsonapi.org/format/#document-resource-objects
type Resource struct {
	Type          string        `json:"type"`
	ID            string        `json:"id"`
	Attributes    any           `json:"attributes"`
	Relationships Relationships `json:"relationships,omitempty"`
	Links         *Links        `json:"links,omitempty"`
	Meta          *Meta         `json:"meta,omitempty"`
}

// Relationships maps relationship names to their data.
type Relationships map[string]*Relationship

// Relationship represents a JSON:API relationship.
type Relationship struct {
	Links *Links `json:"links,omitempty"`
	Data  any    `json:"data,omitempty"` // Can be ResourceIdentifier, []ResourceIdentifier, or nil
	Meta  *Meta  `json:"meta,omitempty"`
}

// ResourceIdentifier identifies a resource without full attributes.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Error represents a JSON:API error object.
// See: https://jsonapi.org/format/#error-objects
type Error struct {
	ID     string       `json:"id,omitempty"`
	Links  *ErrorLinks  `json:"links,omitempty"`
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   *Meta        `json:"meta,omitempty"`
}

// ErrorLinks holds links for error objects.
type ErrorLinks struct {
	About string `json:"about,omitempty"`
	Type  string `json:"type,omitempty"`
}

// ErrorSource holds references to the source of an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

// NewResource creates a new resource with the given type, id and attributes.
func NewResource(resourceType, id string, attrs any) *Resource {
	return &Resource{
		Type:       resourceType,
		ID:         id,
		Attributes: attrs,
	}
}

// NewSingleResponse creates a JSON:API document with a single resource.
func NewSingleResponse(resource *Resource) *Document {
	return &Document{
		Data: resource,
	}
}

// NewListResponse creates a JSON:API document with a list of resources.
func NewListResponse(resources []*Resource) *Document {
	if resources == nil {
		resources = []*Resource{}
	}
	return &Document{
		Data: resources,
	}
}

// NewMetaResponse creates a JSON:API document carrying only meta information.
func NewMetaResponse(meta Meta) *Document {
	return &Document{
		Meta: &meta,
	}
}

// WithMeta attaches meta information to the document.
func (d *Document) WithMeta(meta Meta) *Document {
	d.Meta = &meta
	return d
}

// NewErrorResponse creates a JSON:API document with errors.
func NewErrorResponse(errors ...Error) *Document {
	return &Document{
		Errors: errors,
	}
}

// NewError creates a simple error with status, title and detail.
func NewError(status, title, detail string) Error {
	return Error{
		Status: status,
		Title:  title,
		Detail: detail,
	}
}
