// Package begin реализует начало сессии: запись пользователя синхронизируется
// из claims токена, затем запускается наблюдатель пробного периода.
package begin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/services/trialwatch"
)

type Users interface {
	UpsertUser(ctx context.Context, user models.User) error
}

type Watcher interface {
	Begin(ctx context.Context, userUID string) (trialwatch.Result, error)
}

type Handler struct {
	log     *slog.Logger
	users   Users
	watcher Watcher
	now     func() time.Time
}

func New(log *slog.Logger, users Users, watcher Watcher, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		log:     log,
		users:   users,
		watcher: watcher,
		now:     now,
	}
}

// @Summary Начать сессию
// @Description Создает или обновляет пользователя по JWT, сразу проверяет триал и запускает периодические проверки.
// @Tags Session
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=trialwatch.Result} "Итог первой проверки"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /api/v1/session [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.begin"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		log.Error("claims missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	// дата начала триала фиксируется только при первой синхронизации
	start := h.now()
	err := h.users.UpsertUser(r.Context(), models.User{
		UID:            claims.UID,
		Email:          claims.Email,
		Name:           claims.Name,
		Role:           claims.Role,
		TrialStartDate: &start,
	})
	if err != nil {
		log.Error("failed to sync user", sl.User(claims.UID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start session"))
		return
	}

	res, err := h.watcher.Begin(r.Context(), claims.UID)
	if err != nil {
		log.Error("trial check failed", sl.User(claims.UID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start session"))
		return
	}

	log.Info("session started", sl.User(claims.UID), slog.String("state", string(res.State)))
	render.JSON(w, r, response.OKWithData(res))
}
