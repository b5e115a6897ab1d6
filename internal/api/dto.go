package api

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/blockdoc/internal/assets"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/docservice"
	"github.com/starford/blockdoc/internal/index"
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Name     string          `json:"name" example:"team/standup" validate:"required"`
	Document json.RawMessage `json:"document,omitempty"`
}

// Validate implements validation.Validatable.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
	)
}

// raw returns the supplied document, or nil when absent or null.
func (r CreateDocumentRequest) raw() []byte {
	if len(r.Document) == 0 || string(r.Document) == "null" {
		return nil
	}
	return r.Document
}

// AddBlockRequest is the request body for inserting a block. Index is
// clamped; omitted means append. Validation is BlockSpec's.
type AddBlockRequest struct {
	docservice.BlockSpec
	Index *int `json:"index,omitempty" example:"0"`
}

// MoveBlockRequest is the request body for reordering.
type MoveBlockRequest struct {
	From *int `json:"from" example:"2" validate:"required"`
	To   *int `json:"to" example:"0" validate:"required"`
}

// Validate implements validation.Validatable.
func (r MoveBlockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.NotNil),
		validation.Field(&r.To, validation.NotNil),
	)
}

// FocusRequest is the request body for moving focus. A null id clears it.
type FocusRequest struct {
	ID *string `json:"id"`
}

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentSummary is a lightweight item in a list response (aliased from the domain layer).
type DocumentSummary = docservice.DocumentSummary

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// BlockResponse wraps a single block.
type BlockResponse struct {
	Block block.Block `json:"block" validate:"required"`
}

// StyleOptionsResponse lists the choices offered to style pickers and the
// per-type defaults.
type StyleOptionsResponse struct {
	Spacing         []string                     `json:"spacing"`
	FontSizes       []string                     `json:"fontSizes"`
	Colors          []string                     `json:"colors"`
	Defaults        map[block.Type]block.Styles  `json:"defaults"`
	HeadingDefaults map[block.Level]block.Styles `json:"headingDefaults"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse = assets.Asset
