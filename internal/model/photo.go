package model

import "time"

// Photo 照片；文件名由图片处理协作方生成
type Photo struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthorID    string    `gorm:"type:varchar(36);index:idx_photo_author;not null" json:"author_id"`
	Description string    `gorm:"type:text" json:"description"`
	Filename    string    `gorm:"type:varchar(64)" json:"filename"`
	FilenameS   string    `gorm:"type:varchar(64)" json:"filename_s"`
	FilenameM   string    `gorm:"type:varchar(64)" json:"filename_m"`
	Flag        int       `gorm:"not null" json:"flag"`
	CanComment  bool      `json:"can_comment"`
	CreatedAt   time.Time `gorm:"index:idx_photo_created" json:"created_at"`
}

func (Photo) TableName() string { return "photos" }
