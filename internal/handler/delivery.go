package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joto-foods/api/internal/geo"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

// DeliveryStore defines the database methods needed to quote a
// delivery. Satisfied by *store.Store; narrow interface for testability.
type DeliveryStore interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	ListBaseLocations(ctx context.Context, activeOnly bool) ([]store.BaseLocation, error)
}

// DeliveryHandler quotes delivery fees for customer coordinates.
type DeliveryHandler struct {
	store DeliveryStore
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(store DeliveryStore) *DeliveryHandler {
	return &DeliveryHandler{store: store}
}

type quoteRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type quoteBaseResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

type quoteResponse struct {
	Distance      float64           `json:"distance"`
	Fee           string            `json:"fee"`
	EstimatedTime string            `json:"estimated_time"`
	BaseLocation  quoteBaseResponse `json:"base_location"`
}

// Quote handles POST /delivery/quote. Coordinates outside every active
// base's radius get 422; the frontend shows the out-of-area message.
func (h *DeliveryHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "latitude and longitude are required"})
		return
	}

	settings, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	locations, err := h.store.ListBaseLocations(r.Context(), true)
	if err != nil {
		log.Printf("ERROR: list base locations for quote: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	bases := make([]geo.Base, len(locations))
	for i, loc := range locations {
		bases[i] = geo.Base{
			ID:             loc.ID,
			Name:           loc.Name,
			Address:        loc.Address,
			Point:          geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude},
			DeliveryRadius: loc.DeliveryRadius,
			IsActive:       loc.IsActive,
		}
	}

	user := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	quote := geo.ResolveQuote(user, bases, numericToDecimal(settings.BaseDeliveryFee), numericToDecimal(settings.PerKmFee))
	if quote == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "location is outside our delivery area"})
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Distance:      quote.Distance,
		Fee:           quote.Fee.StringFixed(2),
		EstimatedTime: quote.EstimatedTime,
		BaseLocation: quoteBaseResponse{
			ID:      quote.Base.ID,
			Name:    quote.Base.Name,
			Address: quote.Base.Address,
		},
	})
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
