package unread

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

// ServeHTTP отдает счетчик непрочитанных для значка в шапке.
// @Summary Число непрочитанных уведомлений
// @Tags Notifications
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int}
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Router /api/v1/notifications/unread [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.unread"
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

	render.JSON(w, r, response.OKWithData(map[string]int{
		"unread_count": h.stores.For(userUID).UnreadCount(r.Context()),
	}))
}
