package api

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockdoc/internal/assets"
)

// AttachmentHandler serves and accepts image files for image blocks.
type AttachmentHandler struct {
	store *assets.Store
}

// NewAttachmentHandler creates a handler over an asset store.
func NewAttachmentHandler(store *assets.Store) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// ServeFile handles GET /attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.store.Path(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); errors.Is(statErr, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /attachments (multipart/form-data, field "file").
//
//	@Summary		Upload an image for use in image blocks
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		201	{object}	AttachmentUploadResponse
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, assets.MaxSize+1<<20)

	if err := r.ParseMultipartForm(assets.MaxSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, assets.MaxSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	asset, err := h.store.Save(header.Filename, data)
	if err != nil {
		writeError(w, "upload attachment", err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}
