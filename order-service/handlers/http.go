package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/order-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder       *application.CreateOrder
	getOrder          *application.GetOrder
	listOrders        *application.ListOrders
	updateOrderStatus *application.UpdateOrderStatus
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrder *application.GetOrder,
	listOrders *application.ListOrders,
	updateOrderStatus *application.UpdateOrderStatus,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:       createOrder,
		getOrder:          getOrder,
		listOrders:        listOrders,
		updateOrderStatus: updateOrderStatus,
	}
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd.BearerToken = bearerToken(r)

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	query := &application.GetOrderQuery{
		OrderID: chi.URLParam(r, "id"),
	}

	response, err := h.getOrder.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListOrders handles order listing requests, optionally filtered by user
func (h *OrderHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	query := &application.ListOrdersQuery{
		UserID: r.URL.Query().Get("userId"),
	}

	response, err := h.listOrders.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// UpdateOrderStatus handles order status transitions
func (h *OrderHandlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	cmd := &application.UpdateOrderStatusCommand{
		OrderID: chi.URLParam(r, "id"),
		Status:  r.URL.Query().Get("status"),
	}

	if err := h.updateOrderStatus.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
	})
}

// bearerToken extracts the caller's bearer credential so it can be passed
// down as an explicit argument
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrPaymentUpdateConflict), errors.Is(err, domain.ErrConcurrentUpdate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidOrderState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrProductUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
