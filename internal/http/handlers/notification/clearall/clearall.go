package clearall

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/notification"
)

type Stores interface {
	For(userUID string) *notification.Store
}

type Handler struct {
	log    *slog.Logger
	stores Stores
}

func New(log *slog.Logger, stores Stores) *Handler {
	return &Handler{
		log:    log,
		stores: stores,
	}
}

// ServeHTTP удаляет все уведомления пользователя, включая закрепленные.
// @Summary Удалить все уведомления
// @Tags Notifications
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /api/v1/notifications [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.clearall"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	if err := h.stores.For(userUID).ClearAll(r.Context()); err != nil {
		log.Error("failed to clear notifications", sl.User(userUID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to clear notifications"))
		return
	}

	log.Info("notifications cleared", sl.User(userUID))
	render.JSON(w, r, response.OK())
}
