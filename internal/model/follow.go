package model

import (
	"time"
)

// Follow 关注关系（A 关注 B），首页 feed 在读时按此表扇出
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID string `gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
	FollowedID string `gorm:"type:varchar(36);index:idx_follow_followed;index:idx_follow_pair,unique;not null"`
	// idx_follow_pair = (follower_id, followed_id)
	CreatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
