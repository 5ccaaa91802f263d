package api

import (
	"net/http"
	"time"

	"paperarchive/internal/api/handler"
	"paperarchive/internal/api/middleware"
	"paperarchive/internal/app/service"
	"paperarchive/internal/common"
	"paperarchive/internal/common/security"
	"paperarchive/internal/domain/model"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

type Services struct {
	Auth          *service.AuthService
	Catalog       *service.CatalogService
	Search        *service.SearchService
	Dashboard     *service.DashboardService
	Categories    *service.CategoryManager
	Papers        *service.PaperManager
	Notifications *service.NotificationManager
}

func NewRouter(svc Services, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Looks for "Authorization: Bearer T" (or the jwt cookie) and resolves the caller's session.
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(middleware.ResolveSession)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(svc.Auth)
		v1.Route("/auth", authHandler.RegisterRoutes)

		catalogHandler := handler.NewCatalogHandler(svc.Catalog, svc.Search)
		v1.Group(catalogHandler.RegisterRoutes)

		adminHandler := handler.NewAdminHandler(svc.Dashboard, svc.Catalog)
		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin)
			adminHandler.RegisterRoutes(admin)

			admin.Route("/categories", handler.NewResourceHandler[model.Category, model.CategoryInput](svc.Categories).RegisterRoutes)
			admin.Route("/papers", func(papers chi.Router) {
				adminHandler.RegisterPaperFormRoutes(papers)
				handler.NewResourceHandler[model.Paper, model.PaperInput](svc.Papers).RegisterRoutes(papers)
			})
			admin.Route("/notifications", handler.NewResourceHandler[model.Notification, model.NotificationInput](svc.Notifications).RegisterRoutes)
		})
	})

	return r
}
