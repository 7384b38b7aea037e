package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petalroad/storefront-service/internal/httpapi"
	"github.com/petalroad/storefront-service/internal/model"
	"github.com/petalroad/storefront-service/internal/order"
	"github.com/petalroad/storefront-service/internal/order/dto"
)

type OrderHandler struct {
	uc     order.UseCase
	logger *zap.Logger
}

func NewOrderHandler(uc order.UseCase, log *zap.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/orders", h.handlePlace)
	mux.HandleFunc("GET /api/v1/orders", h.handleList)
	mux.HandleFunc("GET /api/v1/orders/{id}", h.handleGet)
	mux.HandleFunc("PATCH /api/v1/orders/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("DELETE /api/v1/orders/{id}", h.handleDelete)
}

func (h *OrderHandler) handlePlace(w http.ResponseWriter, r *http.Request) {
	var input dto.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpapi.WriteBadRequest(w, "invalid JSON body")
		return
	}

	o, err := h.uc.PlaceOrder(r.Context(), &input)
	if err != nil {
		h.logger.Warn("order placement failed", zap.Error(err))
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, o)
}

type listResponse struct {
	Orders []model.Order `json:"orders"`
	Total  int           `json:"total"`
}

// handleList doubles as the customer-facing lookup: a ?number= query
// returns the single matching order.
func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if number := q.Get("number"); number != "" {
		o, err := h.uc.GetOrderByNumber(r.Context(), number)
		if err != nil {
			httpapi.WriteError(w, err)
			return
		}
		httpapi.WriteJSON(w, http.StatusOK, o)
		return
	}

	filters := &dto.OrderFilters{
		Status:   q.Get("status"),
		Page:     intParam(q.Get("page")),
		PageSize: intParam(q.Get("pageSize")),
	}

	orders, total, err := h.uc.ListOrders(r.Context(), filters)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	httpapi.WriteJSON(w, http.StatusOK, listResponse{Orders: orders, Total: total})
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input dto.UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpapi.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if err := input.Validate(); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	o, err := h.uc.UpdateOrderStatus(r.Context(), r.PathValue("id"), input.Status)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
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
