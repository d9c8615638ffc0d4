// Package remove удаляет уведомление пользователя по id.
// Уведомления с dismissible=false удалить нельзя.
package remove

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
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
)

// ErrPinned уведомление нельзя скрыть.
var ErrPinned = errors.New("notification cannot be dismissed")

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

// @Summary Скрыть уведомление
// @Description Удаляет уведомление. Закрепленные уведомления (dismissible=false) удалить нельзя.
// @Tags Notifications
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID уведомления"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Уведомление закреплено"
// @Failure 404 {object} response.Response "Уведомление не найдено"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /api/v1/notifications/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.remove"
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
	err := h.stores.For(userUID).DeleteIf(r.Context(), id, func(n models.Notification) error {
		if !n.Dismissible {
			return ErrPinned
		}
		return nil
	})
	switch {
	case errors.Is(err, notification.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("notification not found"))
		return
	case errors.Is(err, ErrPinned):
		log.Info("attempt to dismiss pinned notification", sl.User(userUID), slog.String("id", id))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(ErrPinned.Error()))
		return
	case err != nil:
		log.Error("failed to delete notification", sl.User(userUID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete notification"))
		return
	}

	log.Info("notification deleted", sl.User(userUID), slog.String("id", id))
	render.JSON(w, r, response.OK())
}
