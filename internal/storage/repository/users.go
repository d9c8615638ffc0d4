package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/advileads/advileads/internal/models"
)

const userColumns = `uid, email, name, role, membership_status,
	trial_start_date, last_trial_notification, welcome_notified_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var status string
	var trialStart, lastNotified, welcomed sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.Role, &status,
		&trialStart, &lastNotified, &welcomed); err != nil {
		return nil, err
	}
	u.MembershipStatus = models.MembershipStatus(status)
	if trialStart.Valid {
		u.TrialStartDate = &trialStart.Time
	}
	if lastNotified.Valid {
		u.LastTrialNotification = &lastNotified.Time
	}
	if welcomed.Valid {
		u.WelcomeNotifiedAt = &welcomed.Time
	}
	return u, nil
}

// UpsertUser сохраняет запись, пришедшую от провайдера идентификации.
// Дата начала пробного периода и статус при повторной синхронизации не меняются.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	status := user.MembershipStatus
	if status == "" {
		status = models.MembershipTrial
	}
	role := user.Role
	if role == "" {
		role = "user"
	}

	query := `INSERT INTO users (uid, email, name, role, membership_status, trial_start_date)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (uid) DO UPDATE
			  SET email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role`
	if _, err := s.DB.ExecContext(ctx, query,
		user.UID, user.Email, user.Name, role, string(status), user.TrialStartDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) touch(ctx context.Context, op, column, userUID string, at time.Time) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET ` + column + ` = $1 WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, at, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// UpdateLastTrialNotification запоминает момент последнего уведомления о пробном периоде.
func (s *Storage) UpdateLastTrialNotification(ctx context.Context, userUID string, at time.Time) error {
	return s.touch(ctx, "storage.UpdateLastTrialNotification", "last_trial_notification", userUID, at)
}

// MarkWelcomeNotified запоминает, что приветствие уже показано.
func (s *Storage) MarkWelcomeNotified(ctx context.Context, userUID string, at time.Time) error {
	return s.touch(ctx, "storage.MarkWelcomeNotified", "welcome_notified_at", userUID, at)
}

// SetMembershipStatus переводит пользователя в новый статус. Повторная
// установка текущего статуса ничего не делает, недопустимый переход
// возвращает ErrInvalidTransition.
func (s *Storage) SetMembershipStatus(ctx context.Context, userUID string, status models.MembershipStatus) error {
	const op = "storage.SetMembershipStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT membership_status FROM users WHERE uid = $1 FOR UPDATE`, userUID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	from := models.MembershipStatus(current)
	if from == status {
		return nil
	}
	if !from.CanTransitionTo(status) {
		return fmt.Errorf("%s: %s -> %s: %w", op, from, status, ErrInvalidTransition)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET membership_status = $1 WHERE uid = $2`, string(status), userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExpireTrials переводит в expired всех пользователей на пробном периоде,
// начатом раньше startedBefore, и возвращает их UID.
func (s *Storage) ExpireTrials(ctx context.Context, startedBefore time.Time) ([]string, error) {
	const op = "storage.ExpireTrials"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET membership_status = 'expired'
			  WHERE membership_status = 'trial'
			    AND trial_start_date IS NOT NULL
			    AND trial_start_date < $1
			  RETURNING uid`
	rows, err := s.DB.QueryContext(ctx, query, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var uid string
		if err = rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, uid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
