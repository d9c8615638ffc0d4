// Package status отдает производное состояние пробного периода
// пользователя для баннера и страницы тарифов.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/storage/repository"
	"github.com/advileads/advileads/internal/trial"
)

type Users interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// View ответ GET /trial.
type View struct {
	MembershipStatus  models.MembershipStatus `json:"membership_status"`
	DaysLeft          int                     `json:"days_left"`
	TrialDay          int                     `json:"trial_day"`
	IsExpired         bool                    `json:"is_expired"`
	IsExpiringSoon    bool                    `json:"is_expiring_soon"`
	ShouldShowWarning bool                    `json:"should_show_warning"`
	TrialEndDate      time.Time               `json:"trial_end_date"`
	FormattedEndDate  string                  `json:"formatted_end_date"`
	Progress          float64                 `json:"progress"`
	RestrictAccess    bool                    `json:"restrict_access"`
	Badge             trial.Badge             `json:"badge"`
}

type Handler struct {
	log    *slog.Logger
	users  Users
	policy *trial.Policy
}

func New(log *slog.Logger, users Users, policy *trial.Policy) *Handler {
	return &Handler{
		log:    log,
		users:  users,
		policy: policy,
	}
}

// Build собирает View для пользователя.
func Build(policy *trial.Policy, user *models.User) View {
	st := policy.Status(user)
	return View{
		MembershipStatus:  user.MembershipStatus,
		DaysLeft:          st.DaysLeft,
		TrialDay:          st.TrialDay,
		IsExpired:         st.IsExpired,
		IsExpiringSoon:    st.IsExpiringSoon,
		ShouldShowWarning: st.ShouldShowWarning,
		TrialEndDate:      st.TrialEndDate,
		FormattedEndDate:  policy.FormatEndDate(user),
		Progress:          policy.Progress(user),
		RestrictAccess:    policy.ShouldRestrictAccess(user),
		Badge:             policy.Badge(st.DaysLeft),
	}
}

// @Summary Состояние пробного периода
// @Description Оставшиеся дни, прогресс, дата окончания и метка триала текущего пользователя.
// @Tags Trial
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=status.View}
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 404 {object} response.Response "Пользователь не найден"
// @Failure 500 {object} response.Response "Внутренняя ошибка сервера"
// @Router /api/v1/trial [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.status"
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

	user, err := h.users.GetUser(r.Context(), userUID)
	if errors.Is(err, repository.ErrUserNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found, begin a session first"))
		return
	}
	if err != nil {
		log.Error("failed to get user", sl.User(userUID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get trial status"))
		return
	}

	render.JSON(w, r, response.OKWithData(Build(h.policy, user)))
}
