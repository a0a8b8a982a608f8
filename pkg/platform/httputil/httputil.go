// Package httputil centralizes JSON envelope rendering so every handler
// returns the same response shapes.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "brokerage/pkg/domainerrors"
)

// debug controls whether internal error detail is included in responses.
// Enabled only outside production mode.
var debug bool

// SetDebug toggles verbose error responses. Call once at startup.
func SetDebug(on bool) { debug = on }

// Envelope is the standard success wrapper for single-entity responses.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// PageRef points at an adjacent page in a paginated listing.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination is the listing metadata block. Total is computed from the same
// filter as the page fetch, before skip/limit are applied.
type Pagination struct {
	Total       int64    `json:"total"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
	TotalPages  int      `json:"totalPages"`
	HasNextPage bool     `json:"hasNextPage"`
	HasPrevPage bool     `json:"hasPrevPage"`
	Next        *PageRef `json:"next,omitempty"`
	Prev        *PageRef `json:"prev,omitempty"`
}

// ListEnvelope is the standard wrapper for list responses.
type ListEnvelope struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Pagination Pagination `json:"pagination"`
	Data       any        `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

// NewPagination derives the metadata block from a total count and the
// requested page/limit.
func NewPagination(total int64, page, limit int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	p := Pagination{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: int64(page*limit) < total,
		HasPrevPage: page > 1,
	}
	if p.HasNextPage {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if p.HasPrevPage {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// WriteJSON renders data inside the success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// WriteList renders a page of results with pagination metadata. count is the
// number of records in this page, not the filtered total.
func WriteList(w http.ResponseWriter, count int, p Pagination, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ListEnvelope{
		Success:    true,
		Count:      count,
		Pagination: p,
		Data:       data,
	})
}

// WriteError translates a domain error to the error envelope. Internal error
// detail is withheld unless debug mode is enabled.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorEnvelope{Success: false, Error: dErrors.MessageOf(err)}
	if code == dErrors.CodeInternal {
		body.Error = "internal server error"
		if debug {
			body.Detail = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// DecodeJSON parses a request body into dst, translating malformed input into
// a bad-request domain error.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
