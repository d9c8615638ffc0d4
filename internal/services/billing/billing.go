// Package billing обрабатывает вебхуки Stripe: завершенная оплата переводит
// пользователя из триала в active и добавляет уведомление об активации.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/storage/repository"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

const (
	eventCheckoutCompleted     = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	eventPaymentFailed         = "payment_intent.payment_failed"
)

// Outcome результат обработки события.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeActivated Outcome = "activated"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomePending   Outcome = "pending"
	OutcomeRejected  Outcome = "rejected"
)

// Repository доступ к статусу тарифа пользователя.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetMembershipStatus(ctx context.Context, userUID string, status models.MembershipStatus) error
}

// Stores выдает хранилище уведомлений пользователя.
type Stores interface {
	For(userUID string) *notification.Store
}

type Service struct {
	repo   Repository
	stores Stores
	secret string
	log    *slog.Logger
}

func New(repo Repository, stores Stores, secret string, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		stores: stores,
		secret: secret,
		log:    log,
	}
}

// HandleWebhook проверяет подпись и применяет событие. Ошибки кроме
// ErrInvalidSignature и ErrMalformedEvent временные: Stripe повторит доставку.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	const op = "billing.HandleWebhook"
	log := s.log.With(sl.Op(op))

	event, err := webhook.ConstructEvent(payload, signature, s.secret)
	if err != nil {
		log.Warn("webhook signature verification failed", sl.Err(err))
		return OutcomeRejected, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	log = log.With(slog.String("event_id", event.ID), slog.String("event_type", string(event.Type)))
	log.Info("processing webhook event")

	switch event.Type {
	case eventCheckoutCompleted, eventAsyncPaymentSucceeded:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return OutcomeRejected, fmt.Errorf("%s: %w: %w", op, ErrMalformedEvent, err)
		}
		return s.activate(ctx, log, &session)
	case eventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return OutcomeRejected, fmt.Errorf("%s: %w: %w", op, ErrMalformedEvent, err)
		}
		log.Warn("payment failed", slog.String("payment_intent", intent.ID))
		return OutcomeIgnored, nil
	default:
		log.Debug("unhandled event type")
		return OutcomeIgnored, nil
	}
}

func (s *Service) activate(ctx context.Context, log *slog.Logger, session *stripe.CheckoutSession) (Outcome, error) {
	const op = "billing.activate"

	uid := session.ClientReferenceID
	if uid == "" {
		return OutcomeRejected, fmt.Errorf("%s: %w: client_reference_id is empty", op, ErrMalformedEvent)
	}
	log = log.With(sl.User(uid), slog.String("checkout_session", session.ID))

	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		log.Info("checkout completed, payment pending")
		return OutcomePending, nil
	}

	user, err := s.repo.GetUser(ctx, uid)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Warn("checkout for unknown user")
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.MembershipStatus == models.MembershipActive {
		return OutcomeDuplicate, nil
	}

	err = s.repo.SetMembershipStatus(ctx, uid, models.MembershipActive)
	if errors.Is(err, repository.ErrInvalidTransition) {
		log.Warn("checkout for user that cannot be activated",
			slog.String("membership_status", string(user.MembershipStatus)))
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.stores.For(uid).Add(ctx, notification.PlanActivated()); err != nil {
		// статус уже сменен, повтор доставки вернет OutcomeDuplicate
		log.Error("failed to add activation notification", sl.Err(err))
	}
	log.Info("membership activated")
	return OutcomeActivated, nil
}
