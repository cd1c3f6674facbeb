package model

import "time"

// Collect 收藏关系（用户收藏照片）
type Collect struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_collect_pair,unique;not null"`
	PhotoID   string `gorm:"type:varchar(36);index:idx_collect_photo;index:idx_collect_pair,unique;not null"`
	CreatedAt time.Time
}

func (Collect) TableName() string { return "collects" }
