package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	OrderTypeDelivery = "delivery"
	OrderTypeDineIn   = "dine-in"
)

// ── Staff roles ──

const (
	UserRoleAdmin   = "admin"
	UserRoleKitchen = "kitchen"
	UserRolePorter  = "porter"
)

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodMpesa       = "mpesa"
	PaymentMethodAirtelMoney = "airtel-money"
	PaymentMethodTigoPesa    = "tigo-pesa"
	PaymentMethodCash        = "cash"
)

const (
	CustomizationTypeSingle   = "single"
	CustomizationTypeMultiple = "multiple"
)

const (
	DineInTypeRoom       = "room"
	DineInTypeRestaurant = "restaurant"
)
