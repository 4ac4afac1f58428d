package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joto-foods/api/internal/config"
	"github.com/joto-foods/api/internal/enum"
	"github.com/joto-foods/api/internal/handler"
	mw "github.com/joto-foods/api/internal/middleware"
	"github.com/joto-foods/api/internal/service"
	"github.com/joto-foods/api/internal/store"
	"github.com/joto-foods/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Customer-facing routes are public; staff routes sit behind JWT auth
// with role checks per endpoint.
func New(cfg *config.Config, st *store.Store, pool *pgxpool.Pool, hub *ws.Hub, notifier *ws.Notifier) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // frontend dev server
			"https://order.jotofoods.co.tz",
			"https://staff.jotofoods.co.tz",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(st, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket routes. The staff socket validates a JWT passed as a
	// query param; the per-order socket is public by order id.
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrdersWS(hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrderWS(hub, w, r)
	})

	newOrderStore := func(db store.DBTX) service.OrderStore {
		return store.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore)
	orderHandler := handler.NewOrderHandler(orderService, st, notifier)
	menuHandler := handler.NewMenuHandler(st)
	locationHandler := handler.NewLocationHandler(st)
	settingsHandler := handler.NewSettingsHandler(st)
	customerHandler := handler.NewCustomerHandler(st)
	deliveryHandler := handler.NewDeliveryHandler(st)

	// Public storefront routes
	r.Get("/menu", menuHandler.List)
	r.Get("/menu/{id}", menuHandler.Get)
	r.Get("/settings", settingsHandler.GetPublic)
	r.Get("/locations", locationHandler.List)
	r.Post("/delivery/quote", deliveryHandler.Quote)
	r.Post("/orders", orderHandler.Create)
	r.Get("/orders/{id}", orderHandler.Get)
	r.Post("/orders/{id}/receipt", orderHandler.ConfirmReceipt)
	r.Get("/my-orders", orderHandler.ListByEmail)

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Get("/orders", orderHandler.List)
		r.Patch("/orders/{id}", orderHandler.UpdateStatus)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			r.Get("/orders/{id}/history", orderHandler.History)

			r.Post("/menu", menuHandler.Create)
			r.Patch("/menu/{id}", menuHandler.Update)
			r.Delete("/menu/{id}", menuHandler.Delete)

			r.Post("/locations", locationHandler.Create)
			r.Patch("/locations/{id}", locationHandler.Update)
			r.Patch("/locations/{id}/toggle", locationHandler.Toggle)
			r.Delete("/locations/{id}", locationHandler.Delete)

			r.Get("/admin/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)

			r.Get("/customers", customerHandler.List)
		})
	})

	return r
}
