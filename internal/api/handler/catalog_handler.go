package handler

import (
	"net"
	"net/http"

	"paperarchive/internal/app/service"
	"paperarchive/internal/common"

	"github.com/go-chi/chi/v5"
)

// ClientIDHeader lets a browser tab identify its own search stream.
const ClientIDHeader = "X-Client-ID"

type CatalogHandler struct {
	catalog *service.CatalogService
	search  *service.SearchService
}

func NewCatalogHandler(catalog *service.CatalogService, search *service.SearchService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, search: search}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.listCategories)               // GET /api/v1/categories
	r.Get("/categories/{categoryRef}", h.getCategory)    // GET /api/v1/categories/{id or slug}
	r.Get("/papers/{paperID}/download", h.downloadPaper) // GET /api/v1/papers/{id}/download?kind=paper
	r.Get("/search", h.searchPapers)                     // GET /api/v1/search?q=
	r.Get("/notifications", h.notificationFeed)          // GET /api/v1/notifications
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetCategoryDetail(r.Context(), chi.URLParam(r, "categoryRef"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *CatalogHandler) downloadPaper(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "paper"
	}
	u, err := h.catalog.DownloadURL(r.Context(), chi.URLParam(r, "paperID"), kind)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *CatalogHandler) searchPapers(w http.ResponseWriter, r *http.Request) {
	results, err := h.search.Search(r.Context(), searchClientID(r), r.URL.Query().Get("q"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, results)
}

func (h *CatalogHandler) notificationFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.catalog.NotificationFeed(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, feed)
}

// searchClientID prefers the explicit header and falls back to the caller's address.
func searchClientID(r *http.Request) string {
	if id := r.Header.Get(ClientIDHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
