package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/storage/repository"
)

// UserGetter источник записи пользователя.
type UserGetter interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// AccessPolicy решает, закрыт ли доступ к платным разделам.
type AccessPolicy interface {
	ShouldRestrictAccess(u *models.User) bool
}

// TrialAccessMiddleware отвечает 403, если триал истек и тариф не оплачен.
func TrialAccessMiddleware(log *slog.Logger, users UserGetter, policy AccessPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.TrialAccessMiddleware"
			log := log.With(
				sl.Op(op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			userUID, ok := UserUIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			// пользователь без записи считается без триала
			user, err := users.GetUser(r.Context(), userUID)
			if errors.Is(err, repository.ErrUserNotFound) {
				user, err = nil, nil
			}
			if err != nil {
				log.Error("failed to get user", sl.User(userUID), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if policy.ShouldRestrictAccess(user) {
				log.Info("trial expired, access denied", sl.User(userUID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("trial expired, upgrade to continue"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
