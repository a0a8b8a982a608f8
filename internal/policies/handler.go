package policies

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the policy service.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var policy Policy
	if err := httputil.DecodeJSON(r, &policy); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), &policy)
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
	writePolicyPage(w, page)
}

func (h *Handler) ByClient(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ByClient(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writePolicyPage(w, page)
}

func (h *Handler) ByGroup(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ByGroup(r.Context(), chi.URLParam(r, "id"), r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writePolicyPage(w, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(patch) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	policy, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	var req RenewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	policy, err := h.service.Renew(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func writePolicyPage(w http.ResponseWriter, page *Page) {
	pagination := httputil.NewPagination(page.Total, page.Params.Page, page.Params.Limit)
	httputil.WriteList(w, len(page.Policies), pagination, page.Policies)
}
