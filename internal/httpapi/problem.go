// Package httpapi — problem-detail JSON responses and shared HTTP plumbing.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/petalroad/storefront-service/internal/apperr"
)

// Problem is an RFC 7807 style error body. Fields carries per-field
// validation messages; Items carries the out-of-stock line items.
type Problem struct {
	Type   string                 `json:"type"`
	Title  string                 `json:"title"`
	Status int                    `json:"status"`
	Detail string                 `json:"detail,omitempty"`
	Fields apperr.FieldErrors     `json:"fields,omitempty"`
	Items  []apperr.StockShortage `json:"items,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteError maps the apperr taxonomy onto HTTP statuses. Anything outside
// the taxonomy is a persistence-layer fault and becomes an opaque 500 — the
// generic message is acceptable only there.
func WriteError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		writeProblem(w, Problem{
			Type:   "urn:storefront:validation",
			Title:  "Invalid request",
			Status: http.StatusBadRequest,
			Fields: ve.Fields,
		})
		return
	}

	var se *apperr.InsufficientStockError
	if errors.As(err, &se) {
		writeProblem(w, Problem{
			Type:   "urn:storefront:insufficient-stock",
			Title:  "Insufficient stock",
			Status: http.StatusBadRequest,
			Detail: se.Error(),
			Items:  se.Items,
		})
		return
	}

	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		writeProblem(w, Problem{
			Type:   "urn:storefront:not-found",
			Title:  "Not found",
			Status: http.StatusNotFound,
			Detail: nf.Error(),
		})
		return
	}

	writeProblem(w, Problem{
		Type:   "urn:storefront:internal",
		Title:  "Internal server error",
		Status: http.StatusInternalServerError,
	})
}

// WriteBadRequest reports a malformed request body (unparseable JSON and the
// like) without going through the taxonomy.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	writeProblem(w, Problem{
		Type:   "urn:storefront:bad-request",
		Title:  "Bad request",
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}
