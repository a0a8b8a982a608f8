package clients

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the client service.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var client Client
	if err := httputil.DecodeJSON(r, &client); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), &client)
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
	writeClientPage(w, page)
}

func (h *Handler) ByType(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ByType(r.Context(), chi.URLParam(r, "type"), r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeClientPage(w, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(patch) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	client, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) UploadKYC(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Documents []string `json:"documents"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, err)
		return
	}
	client, err := h.service.UploadKYC(r.Context(), chi.URLParam(r, "id"), body.Documents)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, client)
}

func writeClientPage(w http.ResponseWriter, page *Page) {
	pagination := httputil.NewPagination(page.Total, page.Params.Page, page.Params.Limit)
	httputil.WriteList(w, len(page.Clients), pagination, page.Clients)
}
