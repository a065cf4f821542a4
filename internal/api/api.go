package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vitrine-io/vitrine/internal/auth"
	"github.com/vitrine-io/vitrine/internal/config"
	"github.com/vitrine-io/vitrine/internal/storage"
	"github.com/vitrine-io/vitrine/internal/store"
)

type Api struct {
	Config config.Config
	Auth   *auth.Service
	Tokens *auth.TokenManager
	Store  *store.Store
	Images *storage.ImageStore
	Router *chi.Mux
}

func NewApi(cfg config.Config, st *store.Store, svc *auth.Service, tokens *auth.TokenManager, images *storage.ImageStore) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, errors.New("Must have at least a port to start API")
	}

	api := &Api{
		Config: cfg,
		Auth:   svc,
		Tokens: tokens,
		Store:  st,
		Images: images,
		Router: chi.NewRouter(),
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://*.local:*", "http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/heartbeat"))

	// Public routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", api.SignupHandler)
		r.Post("/login", api.LoginHandler)
		r.Post("/refresh", api.RefreshHandler)
		r.Post("/logout", api.LogoutHandler)
		r.Post("/verify-email", api.VerifyEmailHandler)
		r.Post("/resend-verification", api.ResendVerificationHandler)
		r.Get("/validate", api.ValidateHandler)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(api.BearerAuthMiddleware)
			r.Post("/logout-all", api.LogoutAllHandler)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(api.BearerAuthMiddleware)
		r.Get("/users/me", api.ProfileHandler)
	})

	r.Get("/products", api.ListProductsHandler)
	r.Get("/products/{slug}", api.GetProductHandler)
}

func (api *Api) Serve() {
	// Expired refresh tokens are swept off the request path.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			if n, err := api.Auth.CleanupExpiredTokens(); err != nil {
				log.Printf("Error cleaning up expired refresh tokens: %v", err)
			} else if n > 0 {
				log.Printf("Cleaned up %d expired refresh tokens", n)
			}
			<-ticker.C
		}
	}()

	log.Printf("Starting API server on 0.0.0.0:%d", api.Config.APIPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort), api.Router))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps service errors onto status codes. Anything outside the
// taxonomy is a 500 with a generic body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
	case errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
	case errors.Is(err, auth.ErrInvalidVerification):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid verification code"})
	case errors.Is(err, auth.ErrAlreadyVerified):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email already verified"})
	default:
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
