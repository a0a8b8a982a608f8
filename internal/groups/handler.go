package groups

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the group service.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var group Group
	if err := httputil.DecodeJSON(r, &group); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), &group)
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
	httputil.WriteList(w, len(page.Groups), pagination, page.Groups)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(patch) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	group, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID   string `json:"clientId"`
		ClientType string `json:"clientType"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	group, err := h.service.AddMember(r.Context(), chi.URLParam(r, "id"), body.ClientID, body.ClientType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "clientId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, group)
}
