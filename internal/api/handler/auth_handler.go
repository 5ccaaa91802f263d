package handler

import (
	"net/http"

	"paperarchive/internal/app/service"
	"paperarchive/internal/app/session"
	"paperarchive/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)    // POST /api/v1/auth/login
	r.Get("/session", h.session) // GET /api/v1/auth/session
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

// session reports who the bearer token belongs to and whether they may use the admin screens.
func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, session.FromContext(r.Context()))
}
