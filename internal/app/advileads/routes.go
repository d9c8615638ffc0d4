package advileads

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/advileads/advileads/docs"

	"github.com/advileads/advileads/internal/http/handlers/billing/webhook"
	"github.com/advileads/advileads/internal/http/handlers/health"
	"github.com/advileads/advileads/internal/http/handlers/leads/access"
	"github.com/advileads/advileads/internal/http/handlers/notification/clearall"
	"github.com/advileads/advileads/internal/http/handlers/notification/create"
	"github.com/advileads/advileads/internal/http/handlers/notification/list"
	"github.com/advileads/advileads/internal/http/handlers/notification/markall"
	"github.com/advileads/advileads/internal/http/handlers/notification/markread"
	"github.com/advileads/advileads/internal/http/handlers/notification/remove"
	"github.com/advileads/advileads/internal/http/handlers/notification/unread"
	"github.com/advileads/advileads/internal/http/handlers/session/begin"
	"github.com/advileads/advileads/internal/http/handlers/session/end"
	"github.com/advileads/advileads/internal/http/handlers/trial/status"
	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/services/trialwatch"
	"github.com/advileads/advileads/internal/trial"
)

// Users хранилище пользователей, нужное HTTP-слою.
type Users interface {
	UpsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Sessions управление наблюдателями триала.
type Sessions interface {
	Begin(ctx context.Context, userUID string) (trialwatch.Result, error)
	End(userUID string)
}

// Routes зависимости маршрутов.
type Routes struct {
	Tokens        middlewarectx.TokenParser
	Users         Users
	Sessions      Sessions
	Notifications *notification.Registry
	Policy        *trial.Policy
	Billing       webhook.Service
	Limiter       *middlewarectx.RateLimiter
	Health        map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Routes) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(deps.Limiter, logger))

			r.Post("/session", begin.New(logger, deps.Users, deps.Sessions, deps.Policy.Now).ServeHTTP)
			r.Delete("/session", end.New(logger, deps.Sessions).ServeHTTP)
			r.Get("/trial", status.New(logger, deps.Users, deps.Policy).ServeHTTP)

			r.Get("/notifications", list.New(logger, deps.Notifications).ServeHTTP)
			r.Get("/notifications/unread", unread.New(logger, deps.Notifications).ServeHTTP)
			r.Post("/notifications/read-all", markall.New(logger, deps.Notifications).ServeHTTP)
			r.Post("/notifications/{id}/read", markread.New(logger, deps.Notifications).ServeHTTP)
			r.Delete("/notifications/{id}", remove.New(logger, deps.Notifications).ServeHTTP)
			r.Delete("/notifications", clearall.New(logger, deps.Notifications).ServeHTTP)

			r.With(middlewarectx.RequireAdmin(logger)).
				Post("/notifications", create.New(logger, deps.Notifications).ServeHTTP)

			// Платные разделы
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.TrialAccessMiddleware(logger, deps.Users, deps.Policy))
				r.Get("/leads/access", access.New(logger).ServeHTTP)
			})
		})

		// Webhook (без аутентификации, подпись проверяет сервис)
		r.Post("/billing/webhook", webhook.New(logger, deps.Billing).ServeHTTP)
	})

	r.Get("/health", health.New(logger, deps.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// NewRouter создает chi-роутер с маршрутами приложения.
func NewRouter(logger *slog.Logger, deps Routes) http.Handler {
	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)
	return router
}
