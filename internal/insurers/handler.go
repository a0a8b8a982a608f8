package insurers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
)

// Handler is the thin HTTP layer over the insurance company service.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var company Company
	if err := httputil.DecodeJSON(r, &company); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), &company)
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
	httputil.WriteList(w, len(page.Companies), pagination, page.Companies)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(patch) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	company, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) UploadKYC(w http.ResponseWriter, r *http.Request) {
	var docs KycDocuments
	if err := httputil.DecodeJSON(r, &docs); err != nil {
		httputil.WriteError(w, err)
		return
	}
	company, err := h.service.UploadKYC(r.Context(), chi.URLParam(r, "id"), docs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, company)
}
