package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	deliveries := &DeliveriesHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/entregas", authMW(http.HandlerFunc(deliveries.ListActive)))
	mux.Handle("GET /api/entregas/{id}", authMW(http.HandlerFunc(deliveries.Get)))
	mux.Handle("POST /api/entregas/{id}/devolver", authMW(http.HandlerFunc(deliveries.Return)))
	mux.Handle("GET /api/devueltos", authMW(http.HandlerFunc(deliveries.ListReturned)))

	return mux
}
