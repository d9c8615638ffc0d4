// Package webhook принимает события платёжного провайдера.
// Подпись проверяется сервисом биллинга по заголовку Stripe-Signature.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/advileads/advileads/internal/http/response"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/services/billing"
)

// MaxBodyBytes предельный размер тела события.
const MaxBodyBytes = 64 << 10

const signatureHeader = "Stripe-Signature"

type Service interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (billing.Outcome, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// @Summary Webhook платежного провайдера
// @Description Подпись проверяется по заголовку Stripe-Signature.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.Response "Неверная подпись или событие"
// @Failure 500 {object} response.Response "Ошибка обработки, провайдер повторит доставку"
// @Router /api/v1/billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	outcome, err := h.service.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader))
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		log.Warn("invalid webhook signature", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	case errors.Is(err, billing.ErrMalformedEvent):
		log.Warn("malformed webhook event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed event"))
		return
	case err != nil:
		// 5xx: провайдер повторит доставку
		log.Error("failed to process webhook", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	log.Info("webhook processed", slog.String("outcome", string(outcome)))
	render.JSON(w, r, response.OKWithData(map[string]string{
		"outcome": string(outcome),
	}))
}
