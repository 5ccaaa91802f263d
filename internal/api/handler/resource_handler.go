package handler

import (
	"context"
	"net/http"

	"paperarchive/internal/common"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ResourceService is the admin CRUD surface of one table.
type ResourceService[T any, In any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, in In) (*T, error)
	Update(ctx context.Context, id string, in In) (*T, error)
	Delete(ctx context.Context, id string) error
}

// ResourceHandler exposes a ResourceService as list/create/update/delete routes.
type ResourceHandler[T any, In any] struct {
	svc ResourceService[T, In]
}

func NewResourceHandler[T any, In any](svc ResourceService[T, In]) *ResourceHandler[T, In] {
	return &ResourceHandler[T, In]{svc: svc}
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func (h *ResourceHandler[T, In]) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *ResourceHandler[T, In]) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	common.RespondWithJSON(w, http.StatusOK, ListResponse[T]{Items: items, Total: len(items)})
}

func (h *ResourceHandler[T, In]) create(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := common.DecodeJSON(r, &in); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *ResourceHandler[T, In]) update(w http.ResponseWriter, r *http.Request) {
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	var in In
	if err := common.DecodeJSON(r, &in); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandler[T, In]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rowID reads the {id} URL param; anything that is not a UUID cannot name a row.
func rowID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		common.RespondWithErr(w, common.ErrNotFound)
		return "", false
	}
	return id, true
}
