package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/checksum"
	"github.com/starford/blockdoc/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docName extracts the document name from the URL. Nested names arrive with
// encoded slashes (team%2Fstandup).
func docName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func setETag(w http.ResponseWriter, sum string) {
	if sum != "" {
		w.Header().Set("ETag", checksum.ETag(sum))
	}
}

// ListDocuments handles GET /documents.
//
//	@Summary		List documents with pagination
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, path)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), limit, offset, q.Get("sort"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// CreateDocument handles POST /documents.
//
//	@Summary		Create a document, empty or from stored JSON
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !readJSON(w, r, &req) {
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Name, req.raw())
	if err != nil {
		writeError(w, "create document", err, slog.String("name", req.Name))
		return
	}
	setETag(w, doc.Checksum)
	writeJSON(w, http.StatusCreated, doc)
}

// GetDocument handles GET /documents/{name}.
//
//	@Summary		Get a document with its session state
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	doc, err := h.svc.Get(r.Context(), name)
	if err != nil {
		writeError(w, "get document", err, slog.String("name", name))
		return
	}
	setETag(w, doc.Checksum)
	writeJSON(w, http.StatusOK, doc)
}

// ExportDocument handles GET /documents/{name}/export and returns the
// stored document format.
//
//	@Summary		Export document JSON
//	@Tags			documents
//	@Produce		json
//	@Param			name	path	string	true	"Document name"
//	@Success		200
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/export [get]
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	data, sum, err := h.svc.Export(r.Context(), name)
	if err != nil {
		writeError(w, "export document", err, slog.String("name", name))
		return
	}
	setETag(w, sum)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ReplaceDocument handles PUT /documents/{name}. The body is a whole stored
// document and must pass strict validation.
//
//	@Summary		Replace a document with optimistic concurrency
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			name		path		string	true	"Document name"
//	@Param			If-Match	header		string	false	"ETag of the version being replaced"
//	@Success		200			{object}	DocumentDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [put]
func (h *Handler) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	doc, err := h.svc.Replace(r.Context(), name, body, checksum.FromIfMatch(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "replace document", err, slog.String("name", name))
		return
	}
	setETag(w, doc.Checksum)
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{name}.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			name	path	string	true	"Document name"
//	@Success		204		"Document deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	if err := h.svc.Delete(r.Context(), name); err != nil {
		writeError(w, "delete document", err, slog.String("name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddBlock handles POST /documents/{name}/blocks.
//
//	@Summary		Insert a new block
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string			true	"Document name"
//	@Param			body	body		AddBlockRequest	true	"Block to insert"
//	@Success		201		{object}	BlockResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/blocks [post]
func (h *Handler) AddBlock(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	var req AddBlockRequest
	if !readJSON(w, r, &req) {
		return
	}
	b, err := h.svc.AddBlock(r.Context(), name, req.BlockSpec, req.Index)
	if err != nil {
		writeError(w, "add block", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusCreated, BlockResponse{Block: b})
}

// UpdateBlock handles PATCH /documents/{name}/blocks/{id}. The body is a
// partial data object merged over the block's current data.
//
//	@Summary		Patch block data
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Param			id		path		string	true	"Block id"
//	@Success		200		{object}	BlockResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/blocks/{id} [patch]
func (h *Handler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	name, id := docName(r), chi.URLParam(r, "id")
	var patch block.Patch
	if !readJSON(w, r, &patch) {
		return
	}
	b, err := h.svc.UpdateBlock(r.Context(), name, id, patch)
	if err != nil {
		writeError(w, "update block", err, slog.String("name", name), slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, BlockResponse{Block: b})
}

// UpdateBlockStyle handles PATCH /documents/{name}/blocks/{id}/styles.
//
//	@Summary		Merge block styles
//	@Tags			blocks
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Param			id		path		string	true	"Block id"
//	@Success		200		{object}	BlockResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/blocks/{id}/styles [patch]
func (h *Handler) UpdateBlockStyle(w http.ResponseWriter, r *http.Request) {
	name, id := docName(r), chi.URLParam(r, "id")
	var styles block.Styles
	if !readJSON(w, r, &styles) {
		return
	}
	b, err := h.svc.UpdateBlockStyle(r.Context(), name, id, styles)
	if err != nil {
		writeError(w, "update block style", err, slog.String("name", name), slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, BlockResponse{Block: b})
}

// DeleteBlock handles DELETE /documents/{name}/blocks/{id}.
//
//	@Summary		Delete a block
//	@Tags			blocks
//	@Param			name	path	string	true	"Document name"
//	@Param			id		path	string	true	"Block id"
//	@Success		204		"Block deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/blocks/{id} [delete]
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	name, id := docName(r), chi.URLParam(r, "id")
	if err := h.svc.DeleteBlock(r.Context(), name, id); err != nil {
		writeError(w, "delete block", err, slog.String("name", name), slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveBlock handles POST /documents/{name}/move.
//
//	@Summary		Move a block to a new position
//	@Tags			blocks
//	@Accept			json
//	@Param			name	path	string				true	"Document name"
//	@Param			body	body	MoveBlockRequest	true	"Source and target indices"
//	@Success		204		"Block moved"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/move [post]
func (h *Handler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	var req MoveBlockRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := h.svc.MoveBlock(r.Context(), name, *req.From, *req.To); err != nil {
		writeError(w, "move block", err, slog.String("name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles POST /documents/{name}/clear.
//
//	@Summary		Reset a document to one empty paragraph
//	@Tags			documents
//	@Produce		json
//	@Param			name	path		string	true	"Document name"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/clear [post]
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	doc, err := h.svc.Clear(r.Context(), name)
	if err != nil {
		writeError(w, "clear document", err, slog.String("name", name))
		return
	}
	setETag(w, doc.Checksum)
	writeJSON(w, http.StatusOK, doc)
}

// SetFocus handles PUT /documents/{name}/focus.
//
//	@Summary		Move or clear the focused block
//	@Tags			blocks
//	@Accept			json
//	@Param			name	path	string			true	"Document name"
//	@Param			body	body	FocusRequest	true	"Block id or null"
//	@Success		204		"Focus updated"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{name}/focus [put]
func (h *Handler) SetFocus(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	var req FocusRequest
	if !readJSON(w, r, &req) {
		return
	}
	id := ""
	if req.ID != nil {
		id = *req.ID
	}
	if err := h.svc.SetFocus(r.Context(), name, id); err != nil {
		writeError(w, "set focus", err, slog.String("name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

// StyleOptions handles GET /style-options.
//
//	@Summary		Style picker choices and per-type defaults
//	@Tags			blocks
//	@Produce		json
//	@Success		200	{object}	StyleOptionsResponse
//	@Security		BearerAuth
//	@Router			/style-options [get]
func (h *Handler) StyleOptions(w http.ResponseWriter, _ *http.Request) {
	resp := StyleOptionsResponse{
		Spacing:         block.SpacingOptions,
		FontSizes:       block.FontSizeOptions,
		Colors:          block.ColorOptions,
		Defaults:        make(map[block.Type]block.Styles, len(block.Types)),
		HeadingDefaults: make(map[block.Level]block.Styles, 3),
	}
	for _, t := range block.Types {
		resp.Defaults[t] = block.DefaultStyles(t)
	}
	for _, l := range []block.Level{block.H1, block.H2, block.H3} {
		resp.HeadingDefaults[l] = block.DefaultHeadingStyles(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
