package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CustomerInfo is the customer snapshot captured at submission time.
// It never references a live customer record.
type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// DineInInfo describes in-hotel fulfillment (room service or restaurant
// table). Stored as jsonb; exactly one of this and delivery_address is
// set on an order.
type DineInInfo struct {
	Type        string `json:"type"` // "room" | "restaurant"
	Location    string `json:"location"`
	RoomNumber  string `json:"room_number,omitempty"`
	Floor       string `json:"floor,omitempty"`
	Section     string `json:"section,omitempty"`
	TableNumber string `json:"table_number,omitempty"`
}

type Order struct {
	ID                 uuid.UUID
	OrderNumber        string
	CustomerID         pgtype.UUID
	CustomerInfo       CustomerInfo
	OrderType          string
	DeliveryAddress    pgtype.Text
	DineInInfo         *DineInInfo
	Subtotal           pgtype.Numeric
	DeliveryFee        pgtype.Numeric
	Total              pgtype.Numeric
	PaymentMethod      string
	PaymentStatus      string
	Status             string
	Notes              pgtype.Text
	ReceiptConfirmed   bool
	ReceiptConfirmedAt pgtype.Timestamptz
	ReceiptConfirmedBy pgtype.Text
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderItem snapshots name and price at order time; menu_item_id may be
// null when the menu item was deleted after ordering.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	MenuItemID          pgtype.UUID
	ItemName            string
	ItemPrice           pgtype.Numeric
	Quantity            int32
	SpecialInstructions pgtype.Text
}

type OrderWithItems struct {
	Order
	Items []OrderItem
}

// StatusHistory is an append-only audit record of a status transition.
type StatusHistory struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	OldStatus string
	NewStatus string
	ChangedBy string
	Notes     pgtype.Text
	CreatedAt time.Time
}

type MenuItem struct {
	ID             uuid.UUID
	Name           string
	Description    pgtype.Text
	Price          pgtype.Numeric
	Category       string
	ImageURL       pgtype.Text
	IsAvailable    bool
	Customizations []Customization
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Customization is an ordered option group on a menu item, stored as
// jsonb alongside the item.
type Customization struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Type     string                `json:"type"` // "single" | "multiple"
	Required bool                  `json:"required"`
	Options  []CustomizationOption `json:"options"`
}

type CustomizationOption struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type BaseLocation struct {
	ID             uuid.UUID
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	IsActive       bool
	DeliveryRadius float64
	CreatedAt      time.Time
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// CustomerSummary is the denormalized analytics row: orders grouped by
// snapshot email, not a maintained customer record.
type CustomerSummary struct {
	Name        string
	Email       string
	Phone       string
	TotalOrders int64
	TotalSpent  pgtype.Numeric
	LastOrderAt time.Time
}

// Settings is the single hotel configuration row with named, typed
// fields and defaults.
type Settings struct {
	ID                       uuid.UUID
	HotelName                string
	Description              pgtype.Text
	Address                  pgtype.Text
	Phone                    pgtype.Text
	Email                    pgtype.Text
	BaseDeliveryFee          pgtype.Numeric
	PerKmFee                 pgtype.Numeric
	MaxDeliveryDistance      float64
	EstimatedPrepTime        int32
	EmailNotifications       bool
	SMSNotifications         bool
	OrderAlerts              bool
	MpesaEnabled             bool
	AirtelMoneyEnabled       bool
	TigoPesaEnabled          bool
	MaintenanceMode          bool
	AutoAcceptOrders         bool
	RequireOrderConfirmation bool
	UpdatedAt                time.Time
}

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}
