package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/catalog"
	"github.com/petalroad/storefront-service/internal/catalog/dto"
	"github.com/petalroad/storefront-service/internal/catalog/engine"
	"github.com/petalroad/storefront-service/internal/httpapi"
	"github.com/petalroad/storefront-service/internal/model"
)

type ProductHandler struct {
	uc     catalog.UseCase
	logger *zap.Logger
}

func NewProductHandler(uc catalog.UseCase, log *zap.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products", h.handleList)
	mux.HandleFunc("GET /api/v1/products/{id}", h.handleGet)
	mux.HandleFunc("POST /api/v1/products", h.handleCreate)
	mux.HandleFunc("PATCH /api/v1/products/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/v1/products/{id}", h.handleDelete)
}

type listResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := &dto.ProductFilters{
		Request: engine.Request{
			Category:   q.Get("category"),
			PriceRange: q.Get("priceRange"),
			Search:     q.Get("search"),
			FlowerType: q.Get("flowerType"),
			Sort:       q.Get("sort"),
			Limit:      intParam(q.Get("limit")),
		},
		Page:     intParam(q.Get("page")),
		PageSize: intParam(q.Get("pageSize")),
	}
	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			filters.Featured = &b
		}
	}

	products, total, err := h.uc.ListProducts(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		httpapi.WriteError(w, err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	httpapi.WriteJSON(w, http.StatusOK, listResponse{
		Products: products,
		Total:    total,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	})
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpapi.WriteBadRequest(w, "invalid JSON body")
		return
	}

	p, err := h.uc.CreateProduct(r.Context(), &input)
	if err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var input dto.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpapi.WriteBadRequest(w, "invalid JSON body")
		return
	}
	input.ID = r.PathValue("id")

	p, err := h.uc.UpdateProduct(r.Context(), &input)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
