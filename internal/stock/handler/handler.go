package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/httpapi"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/stock"
)

type StockHandler struct {
	uc     stock.UseCase
	logger *zap.Logger
}

func NewStockHandler(uc stock.UseCase, log *zap.Logger) *StockHandler {
	return &StockHandler{uc: uc, logger: log}
}

func (h *StockHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products/{id}/stock", h.handleGet)
	mux.HandleFunc("PUT /api/v1/products/{id}/stock", h.handleSet)
	mux.HandleFunc("GET /api/v1/stock/movements", h.handleMovements)
}

type stockResponse struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

func (h *StockHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	qty, err := h.uc.GetStock(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, stockResponse{ProductID: id, Stock: qty})
}

type setStockRequest struct {
	Stock  int    `json:"stock"`
	Reason string `json:"reason"`
}

func (h *StockHandler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "invalid JSON body")
		return
	}

	id := r.PathValue("id")
	qty, err := h.uc.SetStock(r.Context(), id, req.Stock, req.Reason)
	if err != nil {
		h.logger.Error("set stock failed", zap.String("product_id", id), zap.Error(err))
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, stockResponse{ProductID: id, Stock: qty})
}

type movementsResponse struct {
	Movements []model.StockMovement `json:"movements"`
	Total     int                   `json:"total"`
}

func (h *StockHandler) handleMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &stock.MovementFilters{
		ProductID: q.Get("productId"),
		Reason:    q.Get("reason"),
		Page:      intParam(q.Get("page")),
		PageSize:  intParam(q.Get("pageSize")),
	}

	movements, total, err := h.uc.ListMovements(r.Context(), filters)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	if movements == nil {
		movements = []model.StockMovement{}
	}
	httpapi.WriteJSON(w, http.StatusOK, movementsResponse{Movements: movements, Total: total})
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
