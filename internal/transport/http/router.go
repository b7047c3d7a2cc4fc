package http

import (
	"context"
	"net/http"

	"github.com/go-auth-redis/internal/application/auth"
	"github.com/go-auth-redis/internal/application/avatar"
	"github.com/go-auth-redis/internal/application/csrf"
	"github.com/go-auth-redis/internal/application/ratelimit"
	"github.com/go-auth-redis/internal/application/session"
	"github.com/go-auth-redis/internal/application/verification"
	"github.com/go-auth-redis/internal/config"
	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/pkg/password"
	"github.com/go-auth-redis/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-redis/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds the services from deps and returns the application router.
// ctx bounds background work such as the IP limiter's sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", csrf.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	hasher := deps.Hasher
	if hasher == nil {
		hasher = password.NewHasher(0)
	}
	guard := csrf.NewGuard(deps.Store, cfg.CSRFTokenTTL)
	sessions := session.NewService(session.ServiceDeps{Store: deps.Store, Tokens: deps.Tokens, CSRF: guard})
	authDeps := auth.ServiceDeps{
		Users:        deps.Users,
		Hasher:       hasher,
		Limiter:      ratelimit.NewLimiter(deps.Store, cfg.RateLimitWindow),
		Verification: verification.NewService(verification.ServiceDeps{Store: deps.Store, MaxOTPAttempts: cfg.OTPMaxAttempts}),
		Sessions:     sessions,
		CSRF:         guard,
		Mailer:       deps.Mailer,
		Avatars:      avatar.NewService(deps.Objects, cfg.AvatarMaxBytes),
		Cache:        deps.Store,
		FrontendURL:  cfg.FrontendURL,
	}
	if deps.Events != nil {
		authDeps.Events = deps.Events
	}
	if deps.Metrics != nil {
		authDeps.Metrics = deps.Metrics
	}
	authSvc := auth.NewService(authDeps)

	cookies := handler.NewCookies(cfg.IsProduction(), cfg.CSRFTokenTTL)
	healthH := handler.NewHealthHandler(deps.Store)
	authH := handler.NewAuthHandler(authSvc, cookies)
	pwH := handler.NewPasswordHandler(authSvc, cookies)
	profileH := handler.NewProfileHandler(authSvc, cfg.AvatarMaxBytes)

	authMw := appmiddleware.Auth(deps.Tokens)
	csrfMw := appmiddleware.CSRF(guard)
	// 5 requests/second, burst of 10, per IP on the unauthenticated entry points.
	publicRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	r.Get("/health-check/{action}", healthH.Ping)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/user", func(r chi.Router) {
		r.With(publicRL.Limit).Post("/register", authH.Register)
		r.Post("/verify/{token}", authH.VerifyEmail)
		r.With(publicRL.Limit).Post("/login", authH.Login)
		r.Post("/verify", authH.VerifyOTP)
		r.With(publicRL.Limit).Post("/resend-otp", authH.ResendOTP)
		r.Post("/refresh", authH.Refresh)
		r.With(publicRL.Limit).Post("/forgot-password", pwH.Forgot)
		r.Post("/reset-password/{token}", pwH.Reset)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/me", authH.Me)
			r.Post("/refresh-csrf", authH.RefreshCSRF)
			r.With(appmiddleware.RequireRole(domain.RoleAdmin)).Get("/admin", authH.Admin)

			r.Group(func(r chi.Router) {
				r.Use(csrfMw)

				r.Post("/logout", authH.Logout)
				r.Post("/change-password", pwH.Change)
				r.Post("/upload-avatar", profileH.UploadAvatar)
			})
		})
	})

	return r
}
