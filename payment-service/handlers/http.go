package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/draftea/order-system/payment-service/application"
	"github.com/draftea/order-system/payment-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// PaymentHandlers contains payment HTTP handlers
type PaymentHandlers struct {
	settlePayment         *application.SettlePayment
	getPayment            *application.GetPayment
	getPaymentByReference *application.GetPaymentByReference
	listPayments          *application.ListPayments
}

// NewPaymentHandlers creates new payment handlers
func NewPaymentHandlers(
	settlePayment *application.SettlePayment,
	getPayment *application.GetPayment,
	getPaymentByReference *application.GetPaymentByReference,
	listPayments *application.ListPayments,
) *PaymentHandlers {
	return &PaymentHandlers{
		settlePayment:         settlePayment,
		getPayment:            getPayment,
		getPaymentByReference: getPaymentByReference,
		listPayments:          listPayments,
	}
}

// SettlePayment handles the external settlement trigger. The caller
// supplies the order and the outcome; the service resolves the pending
// payment and broadcasts the result.
func (h *PaymentHandlers) SettlePayment(w http.ResponseWriter, r *http.Request) {
	cmd := &application.SettlePaymentCommand{
		OrderID: r.URL.Query().Get("orderId"),
		Outcome: r.URL.Query().Get("status"),
	}

	response, err := h.settlePayment.Execute(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetPayment handles payment retrieval requests
func (h *PaymentHandlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	query := &application.GetPaymentQuery{
		PaymentID: chi.URLParam(r, "id"),
	}

	response, err := h.getPayment.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// GetPaymentByReference handles settlement-reference lookups
func (h *PaymentHandlers) GetPaymentByReference(w http.ResponseWriter, r *http.Request) {
	query := &application.GetPaymentByReferenceQuery{
		ReferenceID: chi.URLParam(r, "reference"),
	}

	response, err := h.getPaymentByReference.Execute(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListPayments handles payment listing requests
func (h *PaymentHandlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	response, err := h.listPayments.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers payment routes
func (h *PaymentHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Get("/", h.ListPayments)
		r.Post("/pay", h.SettlePayment)
		r.Get("/ref/{reference}", h.GetPaymentByReference)
		r.Get("/{id}", h.GetPayment)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrPaymentAlreadySettled),
		errors.Is(err, domain.ErrDuplicatePayment),
		errors.Is(err, domain.ErrConcurrentUpdate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidPaymentState):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
