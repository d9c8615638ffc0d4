// Package access точка проверки доступа к платному разделу лидов.
// Сам доступ решает TrialAccessMiddleware; сюда доходят только разрешенные запросы.
package access

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
)

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// @Summary Доступ к платным разделам
// @Tags Leads
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Пробный период истек"
// @Router /api/v1/leads/access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.leads.access"
	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	h.log.Debug("leads access granted",
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		sl.User(userUID),
	)

	render.JSON(w, r, response.OKWithData(map[string]bool{
		"access": true,
	}))
}
