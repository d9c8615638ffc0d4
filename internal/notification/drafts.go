package notification

import (
	"fmt"

	"github.com/advileads/advileads/internal/models"
)

// Пути назначения для кнопок уведомлений.
const (
	PricingPath = "/pricing"
	LeadsPath   = "/leads"
	ForumPath   = "/forum"
)

// TrialUpdate уведомление о ходе пробного периода.
func TrialUpdate(message string) Draft {
	return Draft{
		Type:        models.NotificationTrial,
		Title:       "Trial Update",
		Message:     message,
		Action:      &models.Action{Label: "Upgrade Now", URL: PricingPath},
		Dismissible: true,
	}
}

// Welcome приветствие нового пользователя.
func Welcome(name string, trialDays int) Draft {
	if name == "" {
		name = "there"
	}
	return Draft{
		Type:  models.NotificationSuccess,
		Title: "Welcome to Advileads!",
		Message: fmt.Sprintf("Hi %s, your %d-day free trial has started. "+
			"Start exploring our premium leads and community features.", name, trialDays),
		Action:      &models.Action{Label: "Get Started", URL: LeadsPath},
		Dismissible: true,
	}
}

// ExpirationWarning предупреждение об истечении, которое нельзя удалить.
func ExpirationWarning(message string) Draft {
	return Draft{
		Type:        models.NotificationWarning,
		Title:       "Trial Expired",
		Message:     message,
		Action:      &models.Action{Label: "Upgrade Now", URL: PricingPath},
		Dismissible: false,
	}
}

var forumTitles = map[models.ForumEventKind]string{
	models.ForumMention:  "You were mentioned",
	models.ForumReply:    "New reply to your post",
	models.ForumReaction: "New reaction to your post",
}

// Forum уведомление об активности на форуме.
func Forum(kind models.ForumEventKind, content string) Draft {
	title, ok := forumTitles[kind]
	if !ok {
		title = "New forum activity"
	}
	return Draft{
		Type:        models.NotificationInfo,
		Title:       title,
		Message:     content,
		Action:      &models.Action{Label: "View", URL: ForumPath},
		Dismissible: true,
	}
}

// PlanActivated подтверждение оплаты.
func PlanActivated() Draft {
	return Draft{
		Type:        models.NotificationSuccess,
		Title:       "Membership activated",
		Message:     "Thanks for upgrading! Full access to leads and the community forum is unlocked.",
		Action:      &models.Action{Label: "Browse Leads", URL: LeadsPath},
		Dismissible: true,
	}
}
