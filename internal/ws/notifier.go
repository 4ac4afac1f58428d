package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

// OrderReader re-reads current order state for notification payloads.
// Satisfied by *store.Store.
type OrderReader interface {
	ListOrders(ctx context.Context, filter store.ListOrdersFilter) ([]store.OrderWithItems, error)
	GetOrderWithItems(ctx context.Context, id uuid.UUID) (store.OrderWithItems, error)
}

// Notifier fans out order changes: the full current collection to the
// global topic and the single joined order to its own topic. It pushes
// refreshed snapshots, not diffs — consumers keep only the most
// recently received payload and resync with a fresh fetch after
// reconnecting.
type Notifier struct {
	hub    *Hub
	reader OrderReader
}

func NewNotifier(hub *Hub, reader OrderReader) *Notifier {
	return &Notifier{hub: hub, reader: reader}
}

// OrderCreated publishes snapshots after a new order is persisted.
func (n *Notifier) OrderCreated(ctx context.Context, orderID uuid.UUID) {
	n.publish(ctx, orderID, "order.created")
}

// OrderUpdated publishes snapshots after any order row change.
func (n *Notifier) OrderUpdated(ctx context.Context, orderID uuid.UUID) {
	n.publish(ctx, orderID, "order.updated")
}

// publish is best-effort: a failed re-read is logged, and the consumer
// recovers on its next refresh or reconnect.
func (n *Notifier) publish(ctx context.Context, orderID uuid.UUID, eventType string) {
	orders, err := n.reader.ListOrders(ctx, store.ListOrdersFilter{})
	if err != nil {
		log.Printf("ERROR: notifier list orders: %v", err)
	} else {
		payloads := make([]orderPayload, len(orders))
		for i, o := range orders {
			payloads[i] = toOrderPayload(o)
		}
		if raw, err := json.Marshal(payloads); err == nil {
			n.hub.Broadcast(TopicOrders, Event{Type: "orders.snapshot", Payload: raw})
		}
	}

	order, err := n.reader.GetOrderWithItems(ctx, orderID)
	if err != nil {
		log.Printf("ERROR: notifier get order %s: %v", orderID, err)
		return
	}
	if raw, err := json.Marshal(toOrderPayload(order)); err == nil {
		n.hub.Broadcast(TopicOrder(orderID), Event{Type: eventType, Payload: raw})
	}
}

// --- Payload types ---

type orderPayload struct {
	ID                 uuid.UUID          `json:"id"`
	OrderNumber        string             `json:"order_number"`
	CustomerInfo       store.CustomerInfo `json:"customer_info"`
	OrderType          string             `json:"order_type"`
	DeliveryAddress    *string            `json:"delivery_address,omitempty"`
	DineInInfo         *store.DineInInfo  `json:"dine_in_info,omitempty"`
	Subtotal           string             `json:"subtotal"`
	DeliveryFee        string             `json:"delivery_fee"`
	Total              string             `json:"total"`
	PaymentMethod      string             `json:"payment_method"`
	PaymentStatus      string             `json:"payment_status"`
	Status             string             `json:"status"`
	Notes              *string            `json:"notes,omitempty"`
	ReceiptConfirmed   bool               `json:"receipt_confirmed"`
	ReceiptConfirmedAt *time.Time         `json:"receipt_confirmed_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Items              []itemPayload      `json:"order_items"`
}

type itemPayload struct {
	ID                  uuid.UUID `json:"id"`
	MenuItemID          *string   `json:"menu_item_id,omitempty"`
	ItemName            string    `json:"item_name"`
	ItemPrice           string    `json:"item_price"`
	Quantity            int32     `json:"quantity"`
	SpecialInstructions *string   `json:"special_instructions,omitempty"`
}

func toOrderPayload(o store.OrderWithItems) orderPayload {
	p := orderPayload{
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
	if o.DeliveryAddress.Valid {
		p.DeliveryAddress = &o.DeliveryAddress.String
	}
	if o.Notes.Valid {
		p.Notes = &o.Notes.String
	}
	if o.ReceiptConfirmedAt.Valid {
		p.ReceiptConfirmedAt = &o.ReceiptConfirmedAt.Time
	}

	p.Items = make([]itemPayload, len(o.Items))
	for i, it := range o.Items {
		p.Items[i] = itemPayload{
			ID:        it.ID,
			ItemName:  it.ItemName,
			ItemPrice: numericToString(it.ItemPrice),
			Quantity:  it.Quantity,
		}
		if it.MenuItemID.Valid {
			s := uuid.UUID(it.MenuItemID.Bytes).String()
			p.Items[i].MenuItemID = &s
		}
		if it.SpecialInstructions.Valid {
			p.Items[i].SpecialInstructions = &it.SpecialInstructions.String
		}
	}
	return p
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
