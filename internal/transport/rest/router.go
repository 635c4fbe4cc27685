package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/lbrode/clientspace/internal/transport/middleware"
)

// RouterConfig carries the transport knobs.
type RouterConfig struct {
	AllowedOrigins  []string
	PublicPerMinute int
	AuthedPerMinute int
}

// NewRouter assembles the HTTP surface. Public routes (health, share
// links, webhooks, login) get a tighter per-IP rate limit than the
// authenticated API.
func NewRouter(
	cfg RouterConfig,
	health *HealthHandler,
	auth *AuthHandler,
	share *ShareHandler,
	spaces *SpaceHandler,
	webhook *WebhookHandler,
	authMW middleware.Middleware,
	logMW middleware.Middleware,
	recoveryMW middleware.Middleware,
	limiter *middleware.RateLimiter,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(recoveryMW)
	r.Use(logMW)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health.Health)
	r.Get("/health/live", health.Live)
	r.Get("/ready", health.Ready)

	r.Route("/api", func(r chi.Router) {
		// Public surface: share links, invitations, webhooks.
		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(cfg.PublicPerMinute))

			r.Post("/auth/login", auth.Login)
			r.Post("/invitations/accept", auth.AcceptInvitation)
			r.Post("/share/{token}/resolve", share.Resolve)
			r.Post("/share/{token}/overview", share.Overview)
			r.Post("/webhooks/{endpointKey}", webhook.Ingest)
		})

		// Authenticated owner surface.
		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(cfg.AuthedPerMinute))
			r.Use(authMW)

			r.Post("/auth/logout", auth.Logout)
			r.Post("/invitations", auth.Invite)
			r.Get("/branding", spaces.Branding)

			r.Get("/prospects", spaces.Prospects)
			r.Post("/prospects", spaces.CreateProspect)
			r.Patch("/prospects/{prospectID}/stage", spaces.MoveProspect)

			r.Route("/spaces/{spaceID}", func(r chi.Router) {
				r.Get("/tasks", spaces.Tasks)
				r.Post("/tasks", spaces.CreateTask)
				r.Patch("/tasks/{taskID}", spaces.UpdateTask)
				r.Delete("/tasks/{taskID}", spaces.DeleteTask)

				r.Get("/milestones", spaces.Milestones)

				r.Get("/invoices", spaces.Invoices)
				r.Post("/invoices", spaces.CreateInvoice)
				r.Patch("/invoices/{invoiceID}/status", spaces.UpdateInvoiceStatus)

				r.Get("/stats", spaces.Stats)

				r.Post("/share", spaces.CreateShare)
				r.Delete("/share", spaces.RevokeShare)
				r.Put("/share/password", spaces.SetSharePassword)

				r.Post("/grants", spaces.CreateGrant)
				r.Delete("/grants/{grantID}", spaces.RevokeGrant)

				r.Get("/notifications", spaces.Notifications)
				r.Post("/notifications/{notificationID}/read", spaces.MarkNotificationRead)
			})
		})
	})

	return r
}
