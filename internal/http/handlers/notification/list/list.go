// Package list отдает уведомления пользователя, новые первыми,
// вместе с количеством непрочитанных.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
)

// Stores выдает хранилище уведомлений пользователя.
type Stores interface {
	For(userUID string) *notification.Store
}

// Page ответ GET /notifications.
type Page struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
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

// @Summary Список уведомлений
// @Description Уведомления пользователя, новые первыми, и число непрочитанных.
// @Tags Notifications
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=list.Page}
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Router /api/v1/notifications [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.list"
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

	items := h.stores.For(userUID).List(r.Context())
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}

	log.Debug("notifications listed", sl.User(userUID), slog.Int("count", len(items)))
	render.JSON(w, r, response.OKWithData(Page{
		Notifications: items,
		UnreadCount:   unread,
	}))
}
