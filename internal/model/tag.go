package model

import "time"

// MaxTagNameLength 与 Name 列宽一致，按字符计
const MaxTagNameLength = 64

// Tag 标签，名称大小写敏感且唯一
type Tag struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Tag) TableName() string { return "tags" }

// PhotoTag 照片-标签多对多关联
type PhotoTag struct {
	PhotoID   string `gorm:"primaryKey;type:varchar(36)"`
	TagID     string `gorm:"primaryKey;type:varchar(36);index:idx_photo_tag_tag"`
	CreatedAt time.Time
}

func (PhotoTag) TableName() string { return "photo_tags" }
