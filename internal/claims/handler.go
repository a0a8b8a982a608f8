package claims

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the claim service.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var claim Claim
	if err := httputil.DecodeJSON(r, &claim); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), &claim)
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
	httputil.WriteList(w, len(page.Claims), pagination, page.Claims)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claim, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(patch) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	claim, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}
