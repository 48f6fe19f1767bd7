package model

import (
	"time"

	baseModel "linka/pkg/model"
)

// 媒体类型
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// StoryTTL 故事的存活时长
const StoryTTL = 24 * time.Hour

// Story 限时故事，过期判定在读取路径惰性进行
type Story struct {
	baseModel.BaseModel
	UserID    string    `gorm:"type:uuid;index" json:"userId"`
	MediaType string    `gorm:"size:20" json:"mediaType"` // image, video
	MediaPath string    `gorm:"size:200" json:"mediaPath"`
	Caption   string    `json:"caption"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
}

// IsExpired 故事是否已过期
func (s *Story) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StoryView 故事浏览记录，(story, user) 唯一约束保证一人一次
type StoryView struct {
	baseModel.BaseModel
	StoryID string `gorm:"type:uuid;uniqueIndex:uniq_story_view,priority:1" json:"storyId"`
	UserID  string `gorm:"type:uuid;uniqueIndex:uniq_story_view,priority:2" json:"userId"`
}
