package model

import "github.com/google/uuid"

// NewID 生成按时间有序的 UUIDv7，主键升序即创建顺序
func NewID() string { return uuid.Must(uuid.NewV7()).String() }

// All 返回需要迁移的全部模型
func All() []any {
	return []any{
		&User{},
		&Photo{},
		&Tag{},
		&PhotoTag{},
		&Comment{},
		&Follow{},
		&Collect{},
		&Notification{},
	}
}
