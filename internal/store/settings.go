package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const settingsColumns = `
	id, hotel_name, description, address, phone, email,
	base_delivery_fee, per_km_fee, max_delivery_distance, estimated_prep_time,
	email_notifications, sms_notifications, order_alerts,
	mpesa_enabled, airtel_money_enabled, tigo_pesa_enabled,
	maintenance_mode, auto_accept_orders, require_order_confirmation,
	updated_at`

// GetSettings returns the single hotel settings row seeded by the
// initial migration.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	row := s.db.QueryRow(ctx, `SELECT`+settingsColumns+` FROM hotel_settings LIMIT 1`)
	var st Settings
	err := row.Scan(
		&st.ID, &st.HotelName, &st.Description, &st.Address, &st.Phone, &st.Email,
		&st.BaseDeliveryFee, &st.PerKmFee, &st.MaxDeliveryDistance, &st.EstimatedPrepTime,
		&st.EmailNotifications, &st.SMSNotifications, &st.OrderAlerts,
		&st.MpesaEnabled, &st.AirtelMoneyEnabled, &st.TigoPesaEnabled,
		&st.MaintenanceMode, &st.AutoAcceptOrders, &st.RequireOrderConfirmation,
		&st.UpdatedAt,
	)
	return st, err
}

type UpdateSettingsParams struct {
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
}

func (s *Store) UpdateSettings(ctx context.Context, arg UpdateSettingsParams) (Settings, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE hotel_settings SET
			hotel_name = $1, description = $2, address = $3, phone = $4, email = $5,
			base_delivery_fee = $6, per_km_fee = $7, max_delivery_distance = $8,
			estimated_prep_time = $9, email_notifications = $10, sms_notifications = $11,
			order_alerts = $12, mpesa_enabled = $13, airtel_money_enabled = $14,
			tigo_pesa_enabled = $15, maintenance_mode = $16, auto_accept_orders = $17,
			require_order_confirmation = $18, updated_at = now()
		RETURNING`+settingsColumns,
		arg.HotelName, arg.Description, arg.Address, arg.Phone, arg.Email,
		arg.BaseDeliveryFee, arg.PerKmFee, arg.MaxDeliveryDistance,
		arg.EstimatedPrepTime, arg.EmailNotifications, arg.SMSNotifications,
		arg.OrderAlerts, arg.MpesaEnabled, arg.AirtelMoneyEnabled,
		arg.TigoPesaEnabled, arg.MaintenanceMode, arg.AutoAcceptOrders,
		arg.RequireOrderConfirmation,
	)
	var st Settings
	err := row.Scan(
		&st.ID, &st.HotelName, &st.Description, &st.Address, &st.Phone, &st.Email,
		&st.BaseDeliveryFee, &st.PerKmFee, &st.MaxDeliveryDistance, &st.EstimatedPrepTime,
		&st.EmailNotifications, &st.SMSNotifications, &st.OrderAlerts,
		&st.MpesaEnabled, &st.AirtelMoneyEnabled, &st.TigoPesaEnabled,
		&st.MaintenanceMode, &st.AutoAcceptOrders, &st.RequireOrderConfirmation,
		&st.UpdatedAt,
	)
	return st, err
}
