package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/joto-foods/api/internal/store"
	"github.com/shopspring/decimal"
)

// SettingsStore defines the database methods needed by settings
// handlers. Satisfied by *store.Store; narrow interface for testability.
type SettingsStore interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	UpdateSettings(ctx context.Context, arg store.UpdateSettingsParams) (store.Settings, error)
}

// SettingsHandler handles the single hotel settings row.
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// --- Request / Response types ---

type settingsRequest struct {
	HotelName                string          `json:"hotel_name"`
	Description              string          `json:"description"`
	Address                  string          `json:"address"`
	Phone                    string          `json:"phone"`
	Email                    string          `json:"email"`
	BaseDeliveryFee          decimal.Decimal `json:"base_delivery_fee"`
	PerKmFee                 decimal.Decimal `json:"per_km_fee"`
	MaxDeliveryDistance      float64         `json:"max_delivery_distance"`
	EstimatedPrepTime        int32           `json:"estimated_prep_time"`
	EmailNotifications       bool            `json:"email_notifications"`
	SMSNotifications         bool            `json:"sms_notifications"`
	OrderAlerts              bool            `json:"order_alerts"`
	MpesaEnabled             bool            `json:"mpesa_enabled"`
	AirtelMoneyEnabled       bool            `json:"airtel_money_enabled"`
	TigoPesaEnabled          bool            `json:"tigo_pesa_enabled"`
	MaintenanceMode          bool            `json:"maintenance_mode"`
	AutoAcceptOrders         bool            `json:"auto_accept_orders"`
	RequireOrderConfirmation bool            `json:"require_order_confirmation"`
}

type settingsResponse struct {
	HotelName                string    `json:"hotel_name"`
	Description              *string   `json:"description"`
	Address                  *string   `json:"address"`
	Phone                    *string   `json:"phone"`
	Email                    *string   `json:"email"`
	BaseDeliveryFee          string    `json:"base_delivery_fee"`
	PerKmFee                 string    `json:"per_km_fee"`
	MaxDeliveryDistance      float64   `json:"max_delivery_distance"`
	EstimatedPrepTime        int32     `json:"estimated_prep_time"`
	EmailNotifications       bool      `json:"email_notifications"`
	SMSNotifications         bool      `json:"sms_notifications"`
	OrderAlerts              bool      `json:"order_alerts"`
	MpesaEnabled             bool      `json:"mpesa_enabled"`
	AirtelMoneyEnabled       bool      `json:"airtel_money_enabled"`
	TigoPesaEnabled          bool      `json:"tigo_pesa_enabled"`
	MaintenanceMode          bool      `json:"maintenance_mode"`
	AutoAcceptOrders         bool      `json:"auto_accept_orders"`
	RequireOrderConfirmation bool      `json:"require_order_confirmation"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// publicSettingsResponse is the unauthenticated subset: what the
// ordering frontend needs to render the storefront and payment options.
type publicSettingsResponse struct {
	HotelName           string  `json:"hotel_name"`
	Description         *string `json:"description"`
	Address             *string `json:"address"`
	Phone               *string `json:"phone"`
	BaseDeliveryFee     string  `json:"base_delivery_fee"`
	PerKmFee            string  `json:"per_km_fee"`
	MaxDeliveryDistance float64 `json:"max_delivery_distance"`
	EstimatedPrepTime   int32   `json:"estimated_prep_time"`
	MpesaEnabled        bool    `json:"mpesa_enabled"`
	AirtelMoneyEnabled  bool    `json:"airtel_money_enabled"`
	TigoPesaEnabled     bool    `json:"tigo_pesa_enabled"`
	MaintenanceMode     bool    `json:"maintenance_mode"`
}

// --- Handlers ---

// GetPublic handles GET /settings for the storefront.
func (h *SettingsHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, publicSettingsResponse{
		HotelName:           st.HotelName,
		Description:         textPtr(st.Description),
		Address:             textPtr(st.Address),
		Phone:               textPtr(st.Phone),
		BaseDeliveryFee:     numericToString(st.BaseDeliveryFee),
		PerKmFee:            numericToString(st.PerKmFee),
		MaxDeliveryDistance: st.MaxDeliveryDistance,
		EstimatedPrepTime:   st.EstimatedPrepTime,
		MpesaEnabled:        st.MpesaEnabled,
		AirtelMoneyEnabled:  st.AirtelMoneyEnabled,
		TigoPesaEnabled:     st.TigoPesaEnabled,
		MaintenanceMode:     st.MaintenanceMode,
	})
}

// Get handles GET /admin/settings with the full row.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.GetSettings(r.Context())
	if err != nil {
		log.Printf("ERROR: get settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(st))
}

// Update handles PUT /settings as a full replace.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.HotelName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "hotel name is required"})
		return
	}
	if req.BaseDeliveryFee.IsNegative() || req.PerKmFee.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery fees must be >= 0"})
		return
	}
	if req.MaxDeliveryDistance < 0 || req.EstimatedPrepTime < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "distance and prep time must be >= 0"})
		return
	}

	st, err := h.store.UpdateSettings(r.Context(), store.UpdateSettingsParams{
		HotelName:                req.HotelName,
		Description:              textOrNull(req.Description),
		Address:                  textOrNull(req.Address),
		Phone:                    textOrNull(req.Phone),
		Email:                    textOrNull(req.Email),
		BaseDeliveryFee:          decimalToNumeric(req.BaseDeliveryFee),
		PerKmFee:                 decimalToNumeric(req.PerKmFee),
		MaxDeliveryDistance:      req.MaxDeliveryDistance,
		EstimatedPrepTime:        req.EstimatedPrepTime,
		EmailNotifications:       req.EmailNotifications,
		SMSNotifications:         req.SMSNotifications,
		OrderAlerts:              req.OrderAlerts,
		MpesaEnabled:             req.MpesaEnabled,
		AirtelMoneyEnabled:       req.AirtelMoneyEnabled,
		TigoPesaEnabled:          req.TigoPesaEnabled,
		MaintenanceMode:          req.MaintenanceMode,
		AutoAcceptOrders:         req.AutoAcceptOrders,
		RequireOrderConfirmation: req.RequireOrderConfirmation,
	})
	if err != nil {
		log.Printf("ERROR: update settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSettingsResponse(st))
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func toSettingsResponse(st store.Settings) settingsResponse {
	return settingsResponse{
		HotelName:                st.HotelName,
		Description:              textPtr(st.Description),
		Address:                  textPtr(st.Address),
		Phone:                    textPtr(st.Phone),
		Email:                    textPtr(st.Email),
		BaseDeliveryFee:          numericToString(st.BaseDeliveryFee),
		PerKmFee:                 numericToString(st.PerKmFee),
		MaxDeliveryDistance:      st.MaxDeliveryDistance,
		EstimatedPrepTime:        st.EstimatedPrepTime,
		EmailNotifications:       st.EmailNotifications,
		SMSNotifications:         st.SMSNotifications,
		OrderAlerts:              st.OrderAlerts,
		MpesaEnabled:             st.MpesaEnabled,
		AirtelMoneyEnabled:       st.AirtelMoneyEnabled,
		TigoPesaEnabled:          st.TigoPesaEnabled,
		MaintenanceMode:          st.MaintenanceMode,
		AutoAcceptOrders:         st.AutoAcceptOrders,
		RequireOrderConfirmation: st.RequireOrderConfirmation,
		UpdatedAt:                st.UpdatedAt,
	}
}
