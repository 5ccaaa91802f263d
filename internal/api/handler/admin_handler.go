package handler

import (
	"net/http"

	"paperarchive/internal/app/service"
	"paperarchive/internal/common"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the admin reads that are not plain table CRUD.
type AdminHandler struct {
	dashboard *service.DashboardService
	catalog   *service.CatalogService
}

func NewAdminHandler(dashboard *service.DashboardService, catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, catalog: catalog}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.stats) // GET /api/v1/admin/stats
}

// RegisterPaperFormRoutes is mounted inside the admin papers router.
func (h *AdminHandler) RegisterPaperFormRoutes(r chi.Router) {
	r.Get("/category-options", h.categoryOptions) // GET /api/v1/admin/papers/category-options
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) categoryOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.catalog.CategoryOptions(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, options)
}
