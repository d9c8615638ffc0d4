package models

import "time"

// NotificationType закрытый набор типов уведомлений.
type NotificationType string

const (
	NotificationTrial   NotificationType = "trial"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// NotificationTypes возвращает все допустимые типы.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationTrial,
		NotificationInfo,
		NotificationWarning,
		NotificationSuccess,
		NotificationError,
	}
}

// Valid сообщает, является ли тип одним из известных значений.
func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Action кнопка призыва к действию в уведомлении.
type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"` // путь назначения для роутера клиента
}

// Notification уведомление, показываемое пользователю в интерфейсе.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Action      *Action          `json:"action,omitempty"`
	Dismissible bool             `json:"dismissible"`
	CreatedAt   time.Time        `json:"createdAt"`
	Read        bool             `json:"read"`
}

// ForumEventKind вид активности на форуме.
type ForumEventKind string

const (
	ForumMention  ForumEventKind = "mention"
	ForumReply    ForumEventKind = "reply"
	ForumReaction ForumEventKind = "reaction"
)

// ForumEvent событие форума, приходящее из брокера.
type ForumEvent struct {
	UserUID string         `json:"user_uid" validate:"required"`
	Kind    ForumEventKind `json:"kind" validate:"required,oneof=mention reply reaction"`
	Content string         `json:"content" validate:"required"`
}

// TrialEvent событие для внешней маркетинговой автоматизации.
type TrialEvent struct {
	Event    string    `json:"event"`
	UserUID  string    `json:"user_uid"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	DaysLeft int       `json:"days_left"`
	TrialDay int       `json:"trial_day"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}
