// Package create реализует административную отправку уведомления пользователю.
//
// Handler принимает JSON с адресатом и содержимым уведомления, валидирует его
// и добавляет уведомление в начало списка пользователя.
package create

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
)

type Stores interface {
	For(userUID string) *notification.Store
}

// Action кнопка в уведомлении; url - путь внутри приложения.
type Action struct {
	Label string `json:"label" validate:"required,max=40"`
	URL   string `json:"url" validate:"required,startswith=/"`
}

// Request тело POST /notifications.
type Request struct {
	UserUID     string  `json:"user_uid" validate:"required"`
	Type        string  `json:"type" validate:"required,oneof=trial info warning success error"`
	Title       string  `json:"title" validate:"required,max=120"`
	Message     string  `json:"message" validate:"required,max=1000"`
	Action      *Action `json:"action,omitempty"`
	Dismissible *bool   `json:"dismissible,omitempty"` // по умолчанию true
}

type Handler struct {
	log      *slog.Logger
	stores   Stores
	validate *validator.Validate
}

func New(log *slog.Logger, stores Stores) *Handler {
	return &Handler{
		log:      log,
		stores:   stores,
		validate: validator.New(),
	}
}

// @Summary Отправить уведомление пользователю
// @Description Только для администраторов.
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Адресат и содержимое уведомления"
// @Success 201 {object} response.Response{data=models.Notification}
// @Failure 400 {object} response.Response "Некорректный JSON"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 403 {object} response.Response "Недостаточно прав"
// @Failure 422 {object} response.Response "Ошибка валидации"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /api/v1/notifications [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.create"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	draft := notification.Draft{
		Type:        models.NotificationType(req.Type),
		Title:       req.Title,
		Message:     req.Message,
		Dismissible: true,
	}
	if req.Dismissible != nil {
		draft.Dismissible = *req.Dismissible
	}
	if req.Action != nil {
		draft.Action = &models.Action{Label: req.Action.Label, URL: req.Action.URL}
	}

	n, err := h.stores.For(req.UserUID).Add(r.Context(), draft)
	if err != nil {
		log.Error("failed to add notification", sl.User(req.UserUID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create notification"))
		return
	}

	log.Info("notification created", sl.User(req.UserUID), slog.String("id", n.ID), slog.String("type", string(n.Type)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(n))
}
