/*
Package handler provides the HTTP handlers and routing setup for the MenuPoll server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to the poll, client and staff handlers.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"menupoll/internal/pkg/auth/jwt"
	"menupoll/internal/pkg/limiter"
	"menupoll/internal/pkg/logx"
	"menupoll/internal/pkg/req"
	"menupoll/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, whose cleanup goroutines stop with ctx, configures CORS,
// and applies global and per-route middleware.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	pollLimiter := limiter.NewIPRateLimiter(ctx, "poll", rate.Limit(deps.Config.PollRate), deps.Config.PollBurst)
	authLimiter := limiter.NewIPRateLimiter(ctx, "authorization", rate.Limit(deps.Config.AuthRate), deps.Config.AuthBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			req.SessionIDHeader, req.UserIDHeader, req.OrderIDHeader,
		},
		ExposedHeaders:   []string{req.SessionIDHeader, PollStatusHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logx.Debug("Health check endpoint hit")

		data := map[string]string{
			"status":  "ok",
			"service": "MenuPoll Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.With(pollLimiter.Middleware).Get("/get", HandlePoll(deps))

	r.With(authLimiter.Middleware).Post("/authorization", HandleAuthorization(deps))

	r.Route("/cart", func(cart chi.Router) {
		cart.Get("/", HandleGetCart(deps))
		cart.Post("/", HandleUpdateCart(deps))
	})

	r.Route("/order", func(order chi.Router) {
		order.Get("/", HandleGetOrder(deps))
		order.Post("/", HandleCreateOrder(deps))
	})

	r.Route("/menu", func(menu chi.Router) {
		menu.Get("/", HandleMenu(deps))
		menu.Get("/dishes/{id}/image", HandleDishImage(deps))
	})

	r.Route("/staff", func(staff chi.Router) {
		staff.Use(jwt.RequireStaff(deps.Config.StaffJWTSecret))

		staff.Put("/dishes/{id}/status", HandleSetDishStatus(deps))
		staff.Put("/orders/{id}/status", HandleSetOrderStatus(deps))
	})

	return r
}
