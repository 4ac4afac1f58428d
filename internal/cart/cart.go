// Package cart accumulates menu line items with customization
// selections and turns a finished cart into an order submission.
package cart

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/joto-foods/api/internal/enum"
	"github.com/joto-foods/api/internal/geo"
	"github.com/joto-foods/api/internal/service"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

// Errors returned by the cart.
var (
	ErrItemUnavailable          = errors.New("menu item is not available")
	ErrInvalidQuantity          = errors.New("quantity must be > 0")
	ErrUnknownCustomization     = errors.New("unknown customization group")
	ErrUnknownOption            = errors.New("unknown customization option")
	ErrRequiredCustomization    = errors.New("required customization not selected")
	ErrSingleChoiceExceeded     = errors.New("single-choice customization allows one option")
	ErrEmptyCart                = errors.New("cart is empty")
	ErrContactRequired          = errors.New("customer name and phone are required")
	ErrInvalidOrderType         = errors.New("invalid order type")
	ErrLocationNotResolved      = errors.New("delivery location has not been resolved")
	ErrServiceDescriptorInvalid = errors.New("dine-in requires room+floor or section+table")
)

// Selection maps a customization group id to the chosen option ids.
type Selection map[string][]string

// Line is one cart entry. UnitPrice already includes the price deltas
// of the selected options, so Subtotal is just Σ UnitPrice×Quantity.
type Line struct {
	MenuItemID          string
	Name                string
	UnitPrice           decimal.Decimal
	Quantity            int32
	Selection           Selection
	OptionNames         []string
	SpecialInstructions string

	key string
}

// Cart holds the accumulated lines in insertion order.
type Cart struct {
	lines []*Line
}

func New() *Cart {
	return &Cart{}
}

// AddItem validates the selection against the item's customization
// groups and merges the line into the cart. Adding the same item with
// an identical selection increments the existing line's quantity
// instead of creating a new one.
func (c *Cart) AddItem(item store.MenuItem, sel Selection, quantity int32, specialInstructions string) error {
	if !item.IsAvailable {
		return ErrItemUnavailable
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	optionPrice, optionNames, err := resolveSelection(item.Customizations, sel)
	if err != nil {
		return err
	}

	price := decimal.Zero
	if v, err := item.Price.Value(); err == nil && v != nil {
		price, _ = decimal.NewFromString(v.(string))
	}

	key := lineKey(item.ID.String(), sel)
	for _, line := range c.lines {
		if line.key == key {
			line.Quantity += quantity
			return nil
		}
	}

	c.lines = append(c.lines, &Line{
		MenuItemID:          item.ID.String(),
		Name:                item.Name,
		UnitPrice:           price.Add(optionPrice),
		Quantity:            quantity,
		Selection:           sel,
		OptionNames:         optionNames,
		SpecialInstructions: specialInstructions,
		key:                 key,
	})
	return nil
}

// RemoveLine drops the line matching the item and selection, if any.
func (c *Cart) RemoveLine(menuItemID string, sel Selection) {
	key := lineKey(menuItemID, sel)
	for i, line := range c.lines {
		if line.key == key {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = *l
	}
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal sums unit price (options included) times quantity over all
// lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.lines {
		sum = sum.Add(line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
	}
	return sum
}

// CheckoutInfo carries everything beyond the lines that a submission
// needs. Quote must be set for delivery orders; it is the fee resolved
// when the customer set their location, carried into the submission
// unchanged.
type CheckoutInfo struct {
	Customer        store.CustomerInfo
	OrderType       string
	DeliveryAddress string
	Quote           *geo.Quote
	DineIn          *store.DineInInfo
	PaymentMethod   string
	Notes           string
}

// Checkout validates the contact and fulfillment details and produces
// the immutable order submission. The delivery fee is zero for dine-in
// and the previously resolved quote fee otherwise.
func (c *Cart) Checkout(info CheckoutInfo) (service.CreateOrderRequest, error) {
	if c.IsEmpty() {
		return service.CreateOrderRequest{}, ErrEmptyCart
	}
	if info.Customer.Name == "" || info.Customer.Phone == "" {
		return service.CreateOrderRequest{}, ErrContactRequired
	}

	fee := decimal.Zero
	switch info.OrderType {
	case enum.OrderTypeDelivery:
		if info.Quote == nil {
			return service.CreateOrderRequest{}, ErrLocationNotResolved
		}
		fee = info.Quote.Fee
	case enum.OrderTypeDineIn:
		if !validDineIn(info.DineIn) {
			return service.CreateOrderRequest{}, ErrServiceDescriptorInvalid
		}
	default:
		return service.CreateOrderRequest{}, ErrInvalidOrderType
	}

	items := make([]service.CreateOrderItemRequest, len(c.lines))
	for i, line := range c.lines {
		items[i] = service.CreateOrderItemRequest{
			MenuItemID:          line.MenuItemID,
			Name:                line.Name,
			Price:               line.UnitPrice,
			Quantity:            line.Quantity,
			SpecialInstructions: renderInstructions(line),
		}
	}

	return service.CreateOrderRequest{
		CustomerInfo:    info.Customer,
		OrderType:       info.OrderType,
		DeliveryAddress: info.DeliveryAddress,
		DineInInfo:      info.DineIn,
		PaymentMethod:   info.PaymentMethod,
		Notes:           info.Notes,
		DeliveryFee:     fee,
		Items:           items,
	}, nil
}

// resolveSelection checks the selection against the item's groups and
// returns the summed option price delta plus the chosen option names.
func resolveSelection(groups []store.Customization, sel Selection) (decimal.Decimal, []string, error) {
	byID := make(map[string]store.Customization, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	for groupID := range sel {
		if _, ok := byID[groupID]; !ok {
			return decimal.Zero, nil, fmt.Errorf("%q: %w", groupID, ErrUnknownCustomization)
		}
	}

	total := decimal.Zero
	var names []string
	for _, g := range groups {
		chosen := sel[g.ID]
		if len(chosen) == 0 {
			if g.Required {
				return decimal.Zero, nil, fmt.Errorf("%q: %w", g.Name, ErrRequiredCustomization)
			}
			continue
		}
		if g.Type == enum.CustomizationTypeSingle && len(chosen) > 1 {
			return decimal.Zero, nil, fmt.Errorf("%q: %w", g.Name, ErrSingleChoiceExceeded)
		}

		options := make(map[string]store.CustomizationOption, len(g.Options))
		for _, o := range g.Options {
			options[o.ID] = o
		}
		for _, optionID := range chosen {
			option, ok := options[optionID]
			if !ok {
				return decimal.Zero, nil, fmt.Errorf("%q: %w", optionID, ErrUnknownOption)
			}
			total = total.Add(option.Price)
			names = append(names, option.Name)
		}
	}
	return total, names, nil
}

func validDineIn(info *store.DineInInfo) bool {
	if info == nil {
		return false
	}
	switch info.Type {
	case enum.DineInTypeRoom:
		return info.RoomNumber != "" && info.Floor != ""
	case enum.DineInTypeRestaurant:
		return info.Section != "" && info.TableNumber != ""
	}
	return false
}

// lineKey canonicalizes the selection so the same choices always
// produce the same key regardless of map iteration or option order.
func lineKey(menuItemID string, sel Selection) string {
	groupIDs := make([]string, 0, len(sel))
	for id, options := range sel {
		if len(options) > 0 {
			groupIDs = append(groupIDs, id)
		}
	}
	sort.Strings(groupIDs)

	var b strings.Builder
	b.WriteString(menuItemID)
	for _, id := range groupIDs {
		options := append([]string(nil), sel[id]...)
		sort.Strings(options)
		b.WriteByte('|')
		b.WriteString(id)
		b.WriteByte('=')
		b.WriteString(strings.Join(options, ","))
	}
	return b.String()
}

// renderInstructions folds the chosen option names into the stored
// special instructions so kitchen staff see them on the ticket.
func renderInstructions(line *Line) string {
	if len(line.OptionNames) == 0 {
		return line.SpecialInstructions
	}
	rendered := strings.Join(line.OptionNames, ", ")
	if line.SpecialInstructions == "" {
		return rendered
	}
	return rendered + "; " + line.SpecialInstructions
}
