package model

import "time"

// NotificationKind 触发通知的动作
type NotificationKind string

const (
	NotificationComment NotificationKind = "comment"
	NotificationCollect NotificationKind = "collect"
)

// Notification 站内通知
type Notification struct {
	ID         string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReceiverID string           `gorm:"type:varchar(36);index:idx_notification_receiver;not null" json:"receiver_id"`
	ActorID    *string          `gorm:"type:varchar(36)" json:"actor_id,omitempty"`
	Kind       NotificationKind `gorm:"type:varchar(16);not null" json:"kind"`
	PhotoID    string           `gorm:"type:varchar(36)" json:"photo_id"`
	Page       int              `json:"page,omitempty"`
	Message    string           `gorm:"type:text" json:"message"`
	IsRead     bool             `gorm:"index:idx_notification_receiver" json:"is_read"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
