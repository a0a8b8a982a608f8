package applications

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the application service.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var app Application
	if err := httputil.DecodeJSON(r, &app); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), &app)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pagination := httputil.NewPagination(page.Total, page.Params.Page, page.Params.Limit)
	httputil.WriteList(w, len(page.Applications), pagination, page.Applications)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(patch) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	app, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}
