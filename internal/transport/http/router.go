package http

import (
	"net/http"

	"github.com/auth-api-nosql/internal/application/auth"
	"github.com/auth-api-nosql/internal/config"
	"github.com/auth-api-nosql/internal/transport/http/handler"
	appmiddleware "github.com/auth-api-nosql/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	// This is also the only throttle on resend; the engine applies none.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		Accounts:      deps.AccountRepo,
		Verifications: deps.VerificationRepo,
		Mailer:        deps.Mailer,
		SMSSender:     deps.SMSSender,
		Codes:         deps.Codes,
		Signer:        deps.JWTProvider,
	})

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(authSvc)
	verifyH := handler.NewVerificationHandler(authSvc)
	sessionH := handler.NewSessionHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/auth/signup", accountH.Signup)
			r.Post("/auth/verify", verifyH.Verify)
			r.Post("/auth/login", sessionH.Login)
			r.Post("/auth/resend-otp", verifyH.Resend)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/profile", accountH.Profile)
		})
	})

	return r
}
