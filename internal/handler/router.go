package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rationdesk/internal/mw"
	"rationdesk/internal/syncstatus"
)

type Deps struct {
	Accounts  Accounts
	Orders    Orders
	Flags     FlagStore
	Sync      *syncstatus.Tracker
	JWTSecret string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/admin/register", RegisterHandler(d.Accounts))
	r.Post("/api/admin/login", LoginHandler(d.Accounts, d.Flags, d.JWTSecret))

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(d.JWTSecret))
		r.Use(mw.RequireAdmin)

		r.Post("/api/admin/logout", LogoutHandler(d.Flags))
		r.Get("/api/dashboard", DashboardHandler(d.Accounts, d.Flags, d.Sync))

		r.Get("/api/orders", ListOrdersHandler(d.Orders))
		r.Post("/api/orders/{id}/accept", AcceptOrderHandler(d.Orders))
		r.Post("/api/orders/{id}/reject", RejectOrderHandler(d.Orders))
		r.Put("/api/orders/{id}/delivery", UpdateDeliveryHandler(d.Orders))

		r.Get("/api/sync/status", SyncStatusHandler(d.Sync))
		r.Get("/api/sync/ws", SyncFeedHandler(d.Sync))
	})

	return r
}
