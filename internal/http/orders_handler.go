package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

type OrdersBackend interface {
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrdersBackend
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersBackend, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if orders == nil {
		orders = make([]*domain.Order, 0)
	}
	respondJSON(w, http.StatusOK, orders)
}

// PUT /api/v1/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	status := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, chi.URLParam(r, "id"), status)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
