// Package api is the JSON HTTP surface of qmedic.
package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/config"
	"github.com/qmedic/qmedic/internal/export"
	"github.com/qmedic/qmedic/internal/imaging"
	"github.com/qmedic/qmedic/internal/inventory"
	"github.com/qmedic/qmedic/internal/metrics"
	"github.com/qmedic/qmedic/internal/model"
)

// Deps are the services the router dispatches to.
type Deps struct {
	DB        *sqlx.DB
	JWTSecret string
	Processor *inventory.Processor
	Exports   *export.Service
	Photos    imaging.Processor
	Metrics   *metrics.Metrics
	Auth      config.AuthConfig
}

// NewRouter creates the API router with all endpoints registered. The
// returned handler records request metrics and logs every request.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Photos: d.Photos}
	inventoryHandler := &InventoryHandler{DB: d.DB, Processor: d.Processor, Exports: d.Exports}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)
	loginLimiter := NewRateLimiter(d.Auth.LoginRatePerMinute, d.Auth.LoginBurst)

	// Public.
	mux.Handle("POST /api/auth/login", loginLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /healthz", healthz(d.DB))
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Session.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/scan/{code}", authMW(http.HandlerFunc(itemsHandler.GetByCode)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(itemsHandler.GetHistory)))

	// Actions and reports (all roles).
	mux.Handle("POST /api/action/log", authMW(http.HandlerFunc(inventoryHandler.LogAction)))
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(inventoryHandler.Overview)))
	mux.Handle("GET /api/history", authMW(http.HandlerFunc(inventoryHandler.History)))
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(inventoryHandler.Notifications)))
	mux.Handle("POST /api/notifications/read/{id}", authMW(http.HandlerFunc(inventoryHandler.MarkRead)))

	// Exports (manager+).
	mux.Handle("GET /api/export/history", authMW(requireManager(http.HandlerFunc(inventoryHandler.ExportHistory))))
	mux.Handle("GET /api/export/{format}", authMW(requireManager(http.HandlerFunc(inventoryHandler.Export))))

	return LoggingMiddleware(d.Metrics.Middleware(mux))
}

func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
