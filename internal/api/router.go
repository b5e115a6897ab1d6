package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/blockdoc/internal/assets"
	"github.com/starford/blockdoc/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, files *assets.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(files)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Route("/documents/{name}", func(r chi.Router) {
		r.Get("/", h.GetDocument)
		r.Put("/", h.ReplaceDocument)
		r.Delete("/", h.DeleteDocument)
		r.Get("/export", h.ExportDocument)
		r.Post("/clear", h.Clear)
		r.Post("/move", h.MoveBlock)
		r.Put("/focus", h.SetFocus)

		r.Post("/blocks", h.AddBlock)
		r.Patch("/blocks/{id}", h.UpdateBlock)
		r.Patch("/blocks/{id}/styles", h.UpdateBlockStyle)
		r.Delete("/blocks/{id}", h.DeleteBlock)
	})

	r.Get("/search", h.Search)
	r.Get("/style-options", h.StyleOptions)

	r.Post("/attachments", ah.Upload)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
