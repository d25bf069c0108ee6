package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, repo *wardrobe.Repository, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Wardrobe: repo}
	photosHandler := &PhotosHandler{DB: db}
	outfitsHandler := &OutfitsHandler{DB: db, Wardrobe: repo}
	laundryHandler := &LaundryHandler{Wardrobe: repo}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items and photos.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/photos", authMW(http.HandlerFunc(photosHandler.Upload)))
	mux.Handle("GET /api/photos/{id}", authMW(http.HandlerFunc(photosHandler.Get)))

	// Outfits.
	mux.Handle("GET /api/outfits", authMW(http.HandlerFunc(outfitsHandler.Generate)))
	mux.Handle("POST /api/outfits/confirm", authMW(http.HandlerFunc(outfitsHandler.Confirm)))
	mux.Handle("GET /api/outfits/saved", authMW(http.HandlerFunc(outfitsHandler.ListSaved)))
	mux.Handle("GET /api/outfits/saved/{id}", authMW(http.HandlerFunc(outfitsHandler.GetSaved)))
	mux.Handle("DELETE /api/outfits/saved/{id}", authMW(http.HandlerFunc(outfitsHandler.DeleteSaved)))
	mux.Handle("GET /api/settings/style", authMW(http.HandlerFunc(outfitsHandler.GetStyle)))
	mux.Handle("PUT /api/settings/style", authMW(http.HandlerFunc(outfitsHandler.SetStyle)))

	// Laundry and worn history.
	mux.Handle("GET /api/laundry", authMW(http.HandlerFunc(laundryHandler.List)))
	mux.Handle("POST /api/laundry", authMW(http.HandlerFunc(laundryHandler.Send)))
	mux.Handle("POST /api/laundry/complete", authMW(http.HandlerFunc(laundryHandler.Complete)))
	mux.Handle("GET /api/history", authMW(http.HandlerFunc(laundryHandler.History)))
	mux.Handle("POST /api/history", authMW(http.HandlerFunc(laundryHandler.RecordWorn)))
	mux.Handle("POST /api/wardrobe/reload", authMW(http.HandlerFunc(laundryHandler.Reload)))

	return mux
}
