package model

import "time"

// NotificationType classifies what produced a notification.
type NotificationType string

const (
	NotificationGoalUpdate NotificationType = "goal_update"
	NotificationInsight    NotificationType = "insight"
	NotificationReminder   NotificationType = "reminder"
)

// IsValid checks if the notification type is valid.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationGoalUpdate, NotificationInsight, NotificationReminder:
		return true
	}
	return false
}

// Notification is a system generated message for one user.
// Read is the only field that changes after creation.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userId"`
	GoalID    *int64           `json:"goalId,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
