package model

import "time"

// Comment 评论。RepliedID 不加外键约束，被回复评论删除后读时按“已删除”处理
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthorID  string    `gorm:"type:varchar(36);index:idx_comment_author;not null" json:"author_id"`
	PhotoID   string    `gorm:"type:varchar(36);index:idx_comment_photo;not null" json:"photo_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Flag      int       `gorm:"not null" json:"flag"`
	RepliedID *string   `gorm:"type:varchar(36);index:idx_comment_replied" json:"replied_id,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_comment_photo" json:"created_at"`
}

func (Comment) TableName() string { return "comments" }
