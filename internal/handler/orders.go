package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joto-foods/api/internal/middleware"
	"github.com/joto-foods/api/internal/service"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (*store.Order, error)
	ConfirmReceipt(ctx context.Context, orderID uuid.UUID, userID string) (*store.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *store.Store; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context, filter store.ListOrdersFilter) ([]store.OrderWithItems, error)
	GetOrderWithItems(ctx context.Context, id uuid.UUID) (store.OrderWithItems, error)
	ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]store.StatusHistory, error)
}

// OrderNotifier publishes order change events to subscribed clients.
// Satisfied by *ws.Notifier.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, orderID uuid.UUID)
	OrderUpdated(ctx context.Context, orderID uuid.UUID)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	notifier OrderNotifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, notifier OrderNotifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, notifier: notifier}
}

// --- Request / Response types ---

type createOrderRequest struct {
	CustomerInfo    store.CustomerInfo       `json:"customer_info"`
	OrderType       string                   `json:"order_type"`
	DeliveryAddress string                   `json:"delivery_address"`
	DineInInfo      *store.DineInInfo        `json:"dine_in_info"`
	PaymentMethod   string                   `json:"payment_method"`
	Notes           string                   `json:"notes"`
	DeliveryFee     decimal.Decimal          `json:"delivery_fee"`
	Items           []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID          string          `json:"menu_item_id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int32           `json:"quantity"`
	SpecialInstructions string          `json:"special_instructions"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type confirmReceiptRequest struct {
	UserID string `json:"user_id"`
}

type orderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	OrderNumber        string              `json:"order_number"`
	CustomerID         *string             `json:"customer_id"`
	CustomerInfo       store.CustomerInfo  `json:"customer_info"`
	OrderType          string              `json:"order_type"`
	DeliveryAddress    *string             `json:"delivery_address"`
	DineInInfo         *store.DineInInfo   `json:"dine_in_info"`
	Subtotal           string              `json:"subtotal"`
	DeliveryFee        string              `json:"delivery_fee"`
	Total              string              `json:"total"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentStatus      string              `json:"payment_status"`
	Status             string              `json:"status"`
	Notes              *string             `json:"notes"`
	ReceiptConfirmed   bool                `json:"receipt_confirmed"`
	ReceiptConfirmedAt *time.Time          `json:"receipt_confirmed_at"`
	ReceiptConfirmedBy *string             `json:"receipt_confirmed_by"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Items              []orderItemResponse `json:"order_items"`
}

type orderItemResponse struct {
	ID                  uuid.UUID `json:"id"`
	MenuItemID          *string   `json:"menu_item_id"`
	ItemName            string    `json:"item_name"`
	ItemPrice           string    `json:"item_price"`
	Quantity            int32     `json:"quantity"`
	SpecialInstructions *string   `json:"special_instructions"`
}

type statusHistoryResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Handlers ---

// Create handles POST /orders: the public checkout submission.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CreateOrderItemRequest{
			MenuItemID:          item.MenuItemID,
			Name:                item.Name,
			Price:               item.Price,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerInfo:    req.CustomerInfo,
		OrderType:       req.OrderType,
		DeliveryAddress: req.DeliveryAddress,
		DineInInfo:      req.DineInInfo,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		DeliveryFee:     req.DeliveryFee,
		Items:           svcItems,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notifier.OrderCreated(r.Context(), result.Order.ID)

	writeJSON(w, http.StatusCreated, toCreatedOrderResponse(result))
}

// List handles GET /orders for staff dashboards. The optional statuses
// query narrows the result, e.g. ?statuses=ready,delivered for the
// porter view.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter store.ListOrdersFilter
	if s := r.URL.Query().Get("statuses"); s != "" {
		for _, status := range strings.Split(s, ",") {
			status = strings.TrimSpace(status)
			if status != "" {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}

	orders, err := h.store.ListOrders(r.Context(), filter)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// ListByEmail handles GET /my-orders?email=: a customer's own history.
func (h *OrderHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	orders, err := h.store.ListOrders(r.Context(), store.ListOrdersFilter{CustomerEmail: email})
	if err != nil {
		log.Printf("ERROR: list orders by email: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Get handles GET /orders/{id}: the public tracking view. Knowing the
// order id is the access capability.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrderWithItems(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateStatus handles PATCH /orders/{id}: a staff state-machine
// transition.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), service.UpdateStatusRequest{
		OrderID: orderID,
		Status:  req.Status,
		Notes:   req.Notes,
		Actor:   service.Actor{ID: claims.UserID.String(), Role: claims.Role},
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderClosed), errors.Is(err, service.ErrPorterTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notifier.OrderUpdated(r.Context(), orderID)

	writeJSON(w, http.StatusOK, toOrderResponse(store.OrderWithItems{Order: *order}))
}

// ConfirmReceipt handles POST /orders/{id}/receipt: the customer
// acknowledging a delivered order.
func (h *OrderHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req confirmReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	order, err := h.svc.ConfirmReceipt(r.Context(), orderID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrReceiptNotDelivered), errors.Is(err, service.ErrReceiptAlreadyConfirmed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: confirm receipt: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notifier.OrderUpdated(r.Context(), orderID)

	writeJSON(w, http.StatusOK, toOrderResponse(store.OrderWithItems{Order: *order}))
}

// History handles GET /orders/{id}/history.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	history, err := h.store.ListStatusHistory(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list status history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]statusHistoryResponse, len(history))
	for i, entry := range history {
		resp[i] = statusHistoryResponse{
			ID:        entry.ID,
			OrderID:   entry.OrderID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			ChangedBy: entry.ChangedBy,
			CreatedAt: entry.CreatedAt,
		}
		if entry.Notes.Valid {
			resp[i].Notes = &entry.Notes.String
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrCustomerInfoRequired) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPrice) ||
		errors.Is(err, service.ErrNegativeFee) ||
		errors.Is(err, service.ErrDeliveryAddressRequired) ||
		errors.Is(err, service.ErrDineInInfoRequired) ||
		errors.Is(err, service.ErrFulfillmentConflict) ||
		errors.Is(err, service.ErrMenuItemNotFound)
}

func toOrderResponses(orders []store.OrderWithItems) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

func toOrderResponse(o store.OrderWithItems) orderResponse {
	resp := orderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerInfo:     o.CustomerInfo,
		OrderType:        o.OrderType,
		DineInInfo:       o.DineInInfo,
		Subtotal:         numericToString(o.Subtotal),
		DeliveryFee:      numericToString(o.DeliveryFee),
		Total:            numericToString(o.Total),
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		Status:           o.Status,
		ReceiptConfirmed: o.ReceiptConfirmed,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}

	if o.CustomerID.Valid {
		s := uuid.UUID(o.CustomerID.Bytes).String()
		resp.CustomerID = &s
	}
	if o.DeliveryAddress.Valid {
		resp.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	if o.ReceiptConfirmedAt.Valid {
		resp.ReceiptConfirmedAt = &o.ReceiptConfirmedAt.Time
	}
	if o.ReceiptConfirmedBy.Valid {
		resp.ReceiptConfirmedBy = &o.ReceiptConfirmedBy.String
	}

	resp.Items = make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		resp.Items[i] = toOrderItemResponse(item)
	}

	return resp
}

func toCreatedOrderResponse(result *service.CreateOrderResult) orderResponse {
	resp := toOrderResponse(store.OrderWithItems{Order: result.Order})
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = toOrderItemResponse(item)
	}
	return resp
}

func toOrderItemResponse(item store.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        item.ID,
		ItemName:  item.ItemName,
		ItemPrice: numericToString(item.ItemPrice),
		Quantity:  item.Quantity,
	}
	if item.MenuItemID.Valid {
		s := uuid.UUID(item.MenuItemID.Bytes).String()
		resp.MenuItemID = &s
	}
	if item.SpecialInstructions.Valid {
		resp.SpecialInstructions = &item.SpecialInstructions.String
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
