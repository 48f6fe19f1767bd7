package model

import (
	"time"

	baseModel "linka/pkg/model"
)

// 用户角色
const (
	RoleUser  = 0
	RoleAdmin = 1
)

// User 用户模型
type User struct {
	baseModel.BaseModel
	Username  string `gorm:"uniqueIndex;size:80" json:"username"`
	Email     string `gorm:"uniqueIndex;size:120" json:"email"`
	Password  string `gorm:"column:password_hash" json:"-"` // 密码不返回给前端
	FirstName string `gorm:"size:80" json:"firstName"`
	LastName  string `gorm:"size:80" json:"lastName"`
	Bio       string `json:"bio"`
	Avatar    string `gorm:"size:200" json:"avatar"`
	Status    string `gorm:"size:100" json:"status"` // 个人状态文案
	Role      int    `gorm:"default:0" json:"role"`

	IsOnline bool      `gorm:"default:false" json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`

	// 反滥用字段：每日评论计数在日界翻转，点赞冷却由互动引擎维护
	CommentCountToday int       `gorm:"default:0" json:"-"`
	LastCommentAt     time.Time `json:"-"`
	IsBanned          bool      `gorm:"default:false" json:"-"`
	LikeCooldownUntil time.Time `json:"-"`
}

// Follow 关注关系，(follower, following) 唯一约束由迁移脚本保证
type Follow struct {
	baseModel.BaseModel
	FollowerID  string `gorm:"type:uuid;uniqueIndex:uniq_follow,priority:1" json:"followerId"`
	FollowingID string `gorm:"type:uuid;uniqueIndex:uniq_follow,priority:2" json:"followingId"`
}

// UserStatus 带过期时间的用户状态，过期判定是读取时惰性进行的
type UserStatus struct {
	baseModel.BaseModel
	UserID     string    `gorm:"type:uuid;index" json:"userId"`
	StatusText string    `gorm:"size:200" json:"statusText"`
	StatusType string    `gorm:"size:20;default:'text'" json:"statusType"` // text, emoji, custom
	ExpiresAt  time.Time `json:"expiresAt"`
}

// IsExpired 状态是否已过期，零值表示永不过期
func (s *UserStatus) IsExpired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// UserActivity 用户行为审计记录，由 worker 异步落库
type UserActivity struct {
	baseModel.BaseModel
	UserID       string `gorm:"type:uuid;index" json:"userId"`
	ActivityType string `gorm:"size:50" json:"activityType"` // login, post, comment, like, follow
	IPAddress    string `gorm:"size:45" json:"ipAddress"`
	UserAgent    string `json:"userAgent"`
}
