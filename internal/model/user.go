package model

import "time"

// User 用户
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string `gorm:"type:varchar(30)" json:"name"`
	Email        string `gorm:"type:varchar(254);uniqueIndex;not null" json:"-"`
	Username     string `gorm:"type:varchar(20);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);not null" json:"role"`
	Confirmed    bool   `json:"confirmed"`

	ReceiveCommentNotification bool `json:"receive_comment_notification"`
	ReceiveCollectNotification bool `json:"receive_collect_notification"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) Can(p Permission) bool { return u != nil && u.Role.Can(p) }
