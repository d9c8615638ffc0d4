package end

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
)

type Watcher interface {
	End(userUID string)
}

type Handler struct {
	log     *slog.Logger
	watcher Watcher
}

func New(log *slog.Logger, watcher Watcher) *Handler {
	return &Handler{
		log:     log,
		watcher: watcher,
	}
}

// ServeHTTP останавливает проверки триала для пользователя (logout).
// @Summary Завершить сессию
// @Tags Session
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Router /api/v1/session [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.end"
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

	h.watcher.End(userUID)
	log.Info("session ended", sl.User(userUID))
	render.JSON(w, r, response.OK())
}
