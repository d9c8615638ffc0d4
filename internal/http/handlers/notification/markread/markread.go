package markread

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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

// ServeHTTP помечает прочитанным уведомление из URL-параметра id.
// @Summary Отметить уведомление прочитанным
// @Tags Notifications
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID уведомления"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 404 {object} response.Response "Уведомление не найдено"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /api/v1/notifications/{id}/read [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.markread"
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

	id := chi.URLParam(r, "id")
	store := h.stores.For(userUID)
	if _, err := store.Get(r.Context(), id); errors.Is(err, notification.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("notification not found"))
		return
	}

	if err := store.MarkAsRead(r.Context(), id); err != nil {
		log.Error("failed to mark notification as read", sl.User(userUID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update notification"))
		return
	}

	render.JSON(w, r, response.OK())
}
