// Package models содержит доменные модели сервиса: пользователя с полями
// пробного периода и уведомление, показываемое в интерфейсе.
package models

import "time"

// MembershipStatus текущее состояние тарифа пользователя.
type MembershipStatus string

const (
	MembershipTrial   MembershipStatus = "trial"
	MembershipActive  MembershipStatus = "active"
	MembershipExpired MembershipStatus = "expired"
)

// Valid сообщает, является ли статус одним из известных значений.
func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipTrial, MembershipActive, MembershipExpired:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустимость перехода статуса:
// trial→active, trial→expired, active→expired.
func (s MembershipStatus) CanTransitionTo(next MembershipStatus) bool {
	switch s {
	case MembershipTrial:
		return next == MembershipActive || next == MembershipExpired
	case MembershipActive:
		return next == MembershipExpired
	}
	return false
}

// User представляет пользователя, синхронизированного из провайдера идентификации.
type User struct {
	UID                   string           `json:"uid"`
	Email                 string           `json:"email"`
	Name                  string           `json:"name"`
	Role                  string           `json:"role"`
	MembershipStatus      MembershipStatus `json:"membership_status"`
	TrialStartDate        *time.Time       `json:"trial_start_date,omitempty"`        // Устанавливается один раз при регистрации
	LastTrialNotification *time.Time       `json:"last_trial_notification,omitempty"` // Для дедупликации уведомлений в течение дня
	WelcomeNotifiedAt     *time.Time       `json:"welcome_notified_at,omitempty"`
}

// IsAdmin сообщает, есть ли у пользователя права администратора.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}
