package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joto-foods/api/internal/store"
)

// CustomerStore defines the database methods needed by customer
// handlers. Satisfied by *store.Store; narrow interface for testability.
type CustomerStore interface {
	ListCustomerSummaries(ctx context.Context) ([]store.CustomerSummary, error)
}

// CustomerHandler handles the admin customer analytics view.
type CustomerHandler struct {
	store CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

type customerSummaryResponse struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	TotalOrders int64     `json:"total_orders"`
	TotalSpent  string    `json:"total_spent"`
	LastOrderAt time.Time `json:"last_order_at"`
}

// List handles GET /customers: order history aggregated by the
// customer snapshot email.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListCustomerSummaries(r.Context())
	if err != nil {
		log.Printf("ERROR: list customer summaries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]customerSummaryResponse, len(summaries))
	for i, c := range summaries {
		resp[i] = customerSummaryResponse{
			Name:        c.Name,
			Email:       c.Email,
			Phone:       c.Phone,
			TotalOrders: c.TotalOrders,
			TotalSpent:  numericToString(c.TotalSpent),
			LastOrderAt: c.LastOrderAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
