package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `
	id, order_number, customer_id, customer_info, order_type,
	delivery_address, dine_in_info, subtotal, delivery_fee, total,
	payment_method, payment_status, status, notes,
	receipt_confirmed, receipt_confirmed_at, receipt_confirmed_by,
	created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerInfo, &o.OrderType,
		&o.DeliveryAddress, &o.DineInInfo, &o.Subtotal, &o.DeliveryFee, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.Notes,
		&o.ReceiptConfirmed, &o.ReceiptConfirmedAt, &o.ReceiptConfirmedBy,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type InsertOrderParams struct {
	OrderNumber     string
	CustomerID      pgtype.UUID
	CustomerInfo    CustomerInfo
	OrderType       string
	DeliveryAddress pgtype.Text
	DineInInfo      *DineInInfo
	Subtotal        pgtype.Numeric
	DeliveryFee     pgtype.Numeric
	Total           pgtype.Numeric
	PaymentMethod   string
	Notes           pgtype.Text
}

// InsertOrder creates an order row with status and payment_status both
// 'pending'.
func (s *Store) InsertOrder(ctx context.Context, arg InsertOrderParams) (Order, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, customer_id, customer_info, order_type,
			delivery_address, dine_in_info, subtotal, delivery_fee, total,
			payment_method, payment_status, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', 'pending', $11)
		RETURNING`+orderColumns,
		arg.OrderNumber, arg.CustomerID, arg.CustomerInfo, arg.OrderType,
		arg.DeliveryAddress, arg.DineInInfo, arg.Subtotal, arg.DeliveryFee, arg.Total,
		arg.PaymentMethod, arg.Notes,
	)
	return scanOrder(row)
}

type InsertOrderItemParams struct {
	OrderID             uuid.UUID
	MenuItemID          pgtype.UUID
	ItemName            string
	ItemPrice           pgtype.Numeric
	Quantity            int32
	SpecialInstructions pgtype.Text
}

func (s *Store) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, item_name, item_price, quantity, special_instructions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, order_id, menu_item_id, item_name, item_price, quantity, special_instructions`,
		arg.OrderID, arg.MenuItemID, arg.ItemName, arg.ItemPrice, arg.Quantity, arg.SpecialInstructions,
	)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.ItemPrice, &it.Quantity, &it.SpecialInstructions)
	return it, err
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetOrderStatusForUpdate locks the order row for a status transition.
func (s *Store) GetOrderStatusForUpdate(ctx context.Context, id uuid.UUID) (string, error) {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	return status, err
}

func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, item_name, item_price, quantity, special_instructions
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.ItemPrice, &it.Quantity, &it.SpecialInstructions); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetOrderWithItems returns the joined order state used by tracking
// views and notification payloads.
func (s *Store) GetOrderWithItems(ctx context.Context, id uuid.UUID) (OrderWithItems, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return OrderWithItems{}, err
	}
	items, err := s.ListOrderItems(ctx, id)
	if err != nil {
		return OrderWithItems{}, fmt.Errorf("list order items: %w", err)
	}
	return OrderWithItems{Order: order, Items: items}, nil
}

// ListOrdersFilter narrows ListOrders. Zero value lists everything.
type ListOrdersFilter struct {
	Statuses      []string
	CustomerEmail string
}

// ListOrders returns orders newest-first with their items attached.
func (s *Store) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]OrderWithItems, error) {
	query := `SELECT` + orderColumns + ` FROM orders`
	var args []any
	switch {
	case len(filter.Statuses) > 0:
		query += ` WHERE status = ANY($1)`
		args = append(args, filter.Statuses)
	case filter.CustomerEmail != "":
		query += ` WHERE customer_info->>'email' = $1`
		args = append(args, filter.CustomerEmail)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []OrderWithItems
	var ids []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, OrderWithItems{Order: o})
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := s.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, item_name, item_price, quantity, special_instructions
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	byOrder := make(map[uuid.UUID][]OrderItem)
	for itemRows.Next() {
		var it OrderItem
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.ItemPrice, &it.Quantity, &it.SpecialInstructions); err != nil {
			return nil, err
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
	Notes  pgtype.Text
}

func (s *Store) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, notes = COALESCE($3, notes), updated_at = now()
		WHERE id = $1
		RETURNING`+orderColumns,
		arg.ID, arg.Status, arg.Notes,
	)
	return scanOrder(row)
}

type InsertStatusHistoryParams struct {
	OrderID   uuid.UUID
	OldStatus string
	NewStatus string
	ChangedBy string
	Notes     pgtype.Text
}

func (s *Store) InsertStatusHistory(ctx context.Context, arg InsertStatusHistoryParams) (StatusHistory, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO order_status_history (order_id, old_status, new_status, changed_by, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, old_status, new_status, changed_by, notes, created_at`,
		arg.OrderID, arg.OldStatus, arg.NewStatus, arg.ChangedBy, arg.Notes,
	)
	var h StatusHistory
	err := row.Scan(&h.ID, &h.OrderID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Notes, &h.CreatedAt)
	return h, err
}

func (s *Store) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, old_status, new_status, changed_by, notes, created_at
		FROM order_status_history WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []StatusHistory
	for rows.Next() {
		var h StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Notes, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ConfirmReceipt applies the receipt confirmation only when the order
// is delivered and not yet confirmed. The WHERE clause doubles as the
// optimistic-concurrency guard: zero matched rows surface as
// pgx.ErrNoRows and the caller decides why.
func (s *Store) ConfirmReceipt(ctx context.Context, id uuid.UUID, userID string) (Order, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE orders
		SET receipt_confirmed = true,
		    receipt_confirmed_at = now(),
		    receipt_confirmed_by = $2,
		    updated_at = now()
		WHERE id = $1 AND status = 'delivered' AND receipt_confirmed = false
		RETURNING`+orderColumns,
		id, userID,
	)
	return scanOrder(row)
}
