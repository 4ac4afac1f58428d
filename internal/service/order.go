package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joto-foods/api/internal/enum"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems              = errors.New("items are required")
	ErrCustomerInfoRequired    = errors.New("customer name and phone are required")
	ErrInvalidOrderType        = errors.New("invalid order_type")
	ErrInvalidQuantity         = errors.New("quantity must be > 0")
	ErrInvalidPrice            = errors.New("item price must be >= 0")
	ErrNegativeFee             = errors.New("delivery fee must be >= 0")
	ErrDeliveryAddressRequired = errors.New("delivery_address is required for delivery orders")
	ErrDineInInfoRequired      = errors.New("dine_in_info is required for dine-in orders")
	ErrFulfillmentConflict     = errors.New("exactly one of delivery_address and dine_in_info must be set")
	ErrMenuItemNotFound        = errors.New("menu item not found")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrOrderClosed             = errors.New("order is in a terminal status")
	ErrPorterTransition        = errors.New("porters may only move ready orders to delivered")
	ErrOrderNotFound           = errors.New("order not found")
	ErrReceiptNotDelivered     = errors.New("receipt can only be confirmed for delivered orders")
	ErrReceiptAlreadyConfirmed = errors.New("receipt already confirmed")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *store.Store (pool- or tx-bound); narrow interface for
// testability.
type OrderStore interface {
	FindCustomerIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
	InsertCustomer(ctx context.Context, name, email, phone string) (uuid.UUID, error)
	InsertOrder(ctx context.Context, arg store.InsertOrderParams) (store.Order, error)
	InsertOrderItem(ctx context.Context, arg store.InsertOrderItemParams) (store.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (store.Order, error)
	GetOrderStatusForUpdate(ctx context.Context, id uuid.UUID) (string, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
	InsertStatusHistory(ctx context.Context, arg store.InsertStatusHistoryParams) (store.StatusHistory, error)
	ConfirmReceipt(ctx context.Context, id uuid.UUID, userID string) (store.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), so the
// service can bind query methods to a transaction it owns.
type NewOrderStore func(db store.DBTX) OrderStore

// CreateOrderRequest is the validated checkout submission.
type CreateOrderRequest struct {
	CustomerInfo    store.CustomerInfo
	OrderType       string
	DeliveryAddress string
	DineInInfo      *store.DineInInfo
	PaymentMethod   string
	Notes           string
	DeliveryFee     decimal.Decimal
	Items           []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line with its snapshot fields.
// MenuItemID may be any string; only well-formed UUIDs are stored as
// references, everything else falls back to the name/price snapshot.
type CreateOrderItemRequest struct {
	MenuItemID          string
	Name                string
	Price               decimal.Decimal
	Quantity            int32
	SpecialInstructions string
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order store.Order
	Items []store.OrderItem
}

// Actor identifies who triggers a status transition.
type Actor struct {
	ID   string
	Role string
}

// ChangedBy is the audit identity written to order_status_history.
func (a Actor) ChangedBy() string {
	if a.Role == enum.UserRolePorter {
		return "porter:" + a.ID
	}
	return a.ID
}

// UpdateStatusRequest applies one state-machine transition.
type UpdateStatusRequest struct {
	OrderID uuid.UUID
	Status  string
	Notes   string
	Actor   Actor
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateOrder validates the submission and creates the customer row
// (lookup-or-insert), the order, and all line items in one transaction.
// Monetary totals are recomputed server-side from the item snapshots:
// subtotal = Σ price×qty, total = subtotal + delivery fee, and the fee
// is forced to zero for dine-in orders.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	fee := req.DeliveryFee
	if req.OrderType == enum.OrderTypeDineIn {
		fee = decimal.Zero
	}
	total := subtotal.Add(fee)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	// Customer upsert is lookup-or-insert only; an existing row is
	// never updated by a later order.
	customerID := pgtype.UUID{}
	if req.CustomerInfo.Email != "" {
		id, err := st.FindCustomerIDByEmail(ctx, req.CustomerInfo.Email)
		if errors.Is(err, pgx.ErrNoRows) {
			id, err = st.InsertCustomer(ctx, req.CustomerInfo.Name, req.CustomerInfo.Email, req.CustomerInfo.Phone)
		}
		if err != nil {
			return nil, fmt.Errorf("upsert customer: %w", err)
		}
		customerID = pgtype.UUID{Bytes: id, Valid: true}
	}

	deliveryAddress := pgtype.Text{}
	if req.OrderType == enum.OrderTypeDelivery {
		deliveryAddress = pgtype.Text{String: req.DeliveryAddress, Valid: true}
	}

	order, err := st.InsertOrder(ctx, store.InsertOrderParams{
		OrderNumber:     generateOrderNumber(),
		CustomerID:      customerID,
		CustomerInfo:    req.CustomerInfo,
		OrderType:       req.OrderType,
		DeliveryAddress: deliveryAddress,
		DineInInfo:      req.DineInInfo,
		Subtotal:        decimalToNumeric(subtotal),
		DeliveryFee:     decimalToNumeric(fee),
		Total:           decimalToNumeric(total),
		PaymentMethod:   req.PaymentMethod,
		Notes:           textOrNull(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []store.OrderItem
	for i, item := range req.Items {
		menuItemID := pgtype.UUID{}
		if id, err := uuid.Parse(item.MenuItemID); err == nil {
			menuItemID = pgtype.UUID{Bytes: id, Valid: true}
		}

		inserted, err := st.InsertOrderItem(ctx, store.InsertOrderItemParams{
			OrderID:             order.ID,
			MenuItemID:          menuItemID,
			ItemName:            item.Name,
			ItemPrice:           decimalToNumeric(item.Price),
			Quantity:            item.Quantity,
			SpecialInstructions: textOrNull(item.SpecialInstructions),
		})
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, inserted)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// UpdateStatus applies a status transition under the state-machine
// rules and appends an audit record when the status actually changes.
// A transition to the current status is accepted as a no-op that only
// bumps updated_at.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*store.Order, error) {
	if !isValidTargetStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.Actor.Role == enum.UserRolePorter && req.Status != enum.OrderStatusDelivered {
		return nil, ErrPorterTransition
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	current, err := st.GetOrderStatusForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order status: %w", err)
	}

	if current != req.Status {
		if isTerminalStatus(current) {
			return nil, ErrOrderClosed
		}
		if req.Actor.Role == enum.UserRolePorter && current != enum.OrderStatusReady {
			return nil, ErrPorterTransition
		}
	}

	order, err := st.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:     req.OrderID,
		Status: req.Status,
		Notes:  textOrNull(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if current != req.Status {
		if _, err := st.InsertStatusHistory(ctx, store.InsertStatusHistoryParams{
			OrderID:   req.OrderID,
			OldStatus: current,
			NewStatus: req.Status,
			ChangedBy: req.Actor.ChangedBy(),
			Notes:     textOrNull(req.Notes),
		}); err != nil {
			return nil, fmt.Errorf("insert status history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// ConfirmReceipt marks a delivered order as received by its customer.
// The conditional update is the concurrency guard; when it matches no
// rows the order is re-read to report the precise conflict.
func (s *OrderService) ConfirmReceipt(ctx context.Context, orderID uuid.UUID, userID string) (*store.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	st := s.newStore(tx)

	order, err := st.ConfirmReceipt(ctx, orderID, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("confirm receipt: %w", err)
		}
		existing, getErr := st.GetOrder(ctx, orderID)
		if getErr != nil {
			if errors.Is(getErr, pgx.ErrNoRows) {
				return nil, ErrOrderNotFound
			}
			return nil, fmt.Errorf("get order for receipt: %w", getErr)
		}
		if existing.ReceiptConfirmed {
			return nil, ErrReceiptAlreadyConfirmed
		}
		return nil, ErrReceiptNotDelivered
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// --- Helpers ---

func validateCreateOrder(req CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	if req.CustomerInfo.Name == "" || req.CustomerInfo.Phone == "" {
		return ErrCustomerInfoRequired
	}
	switch req.OrderType {
	case enum.OrderTypeDelivery:
		if req.DeliveryAddress == "" {
			return ErrDeliveryAddressRequired
		}
		if req.DineInInfo != nil {
			return ErrFulfillmentConflict
		}
	case enum.OrderTypeDineIn:
		if req.DineInInfo == nil {
			return ErrDineInInfoRequired
		}
		if req.DeliveryAddress != "" {
			return ErrFulfillmentConflict
		}
	default:
		return ErrInvalidOrderType
	}
	if req.DeliveryFee.IsNegative() {
		return ErrNegativeFee
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("items[%d]: %w", i, ErrInvalidPrice)
		}
	}
	return nil
}

const orderNumberAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// generateOrderNumber derives a human-readable order number from the
// current time plus a random suffix, e.g. ORD-1756500000000-k3f9x2a1b.
func generateOrderNumber() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

func isValidTargetStatus(s string) bool {
	switch s {
	case enum.OrderStatusConfirmed, enum.OrderStatusPreparing,
		enum.OrderStatusReady, enum.OrderStatusDelivered,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}

func isTerminalStatus(s string) bool {
	return s == enum.OrderStatusDelivered || s == enum.OrderStatusCancelled
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
