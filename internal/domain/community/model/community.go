package model

import (
	"linka/internal/pkg/antispam"
	baseModel "linka/pkg/model"
)

// 成员角色
const (
	MemberRoleMember    = "member"
	MemberRoleModerator = "moderator"
	MemberRoleAdmin     = "admin"
)

// Community 社区。过滤策略和外观设置都落在本表的列上。
type Community struct {
	baseModel.BaseModel
	Name        string `gorm:"uniqueIndex;size:100" json:"name"`
	Description string `json:"description"`
	Category    string `gorm:"size:50" json:"category"`
	IsPrivate   bool   `gorm:"default:false" json:"isPrivate"`
	CreatorID   string `gorm:"type:uuid;index" json:"creatorId"`

	// 评论过滤策略
	CommentsEnabled bool   `gorm:"default:true" json:"commentsEnabled"`
	ProfanityFilter bool   `gorm:"default:false" json:"profanityFilter"`
	HostileFilter   bool   `gorm:"default:false" json:"hostileFilter"`
	KeywordFilter   bool   `gorm:"default:false" json:"keywordFilter"`
	BannedKeywords  string `json:"bannedKeywords"` // 逗号分隔

	// 外观设置
	ColorScheme string `gorm:"size:50;default:'default'" json:"colorScheme"`
	FontSize    string `gorm:"size:20;default:'medium'" json:"fontSize"`
	Theme       string `gorm:"size:30;default:'light'" json:"theme"`
	CustomCSS   string `json:"customCss"`
}

// FilterPolicy 导出为规则引擎可执行的过滤策略
func (c *Community) FilterPolicy() antispam.FilterPolicy {
	return antispam.FilterPolicy{
		CommentsEnabled: c.CommentsEnabled,
		ProfanityFilter: c.ProfanityFilter,
		HostileFilter:   c.HostileFilter,
		KeywordFilter:   c.KeywordFilter,
		BannedKeywords:  c.BannedKeywords,
	}
}

// CommunityMember 社区成员，(user, community) 唯一
type CommunityMember struct {
	baseModel.BaseModel
	CommunityID string `gorm:"type:uuid;uniqueIndex:uniq_member,priority:1" json:"communityId"`
	UserID      string `gorm:"type:uuid;uniqueIndex:uniq_member,priority:2" json:"userId"`
	Role        string `gorm:"size:20;default:'member'" json:"role"`
}

// CanManage 是否可以修改社区设置
func (m *CommunityMember) CanManage() bool {
	return m.Role == MemberRoleAdmin || m.Role == MemberRoleModerator
}

// CommunityPost 社区内的帖子，只有创建者可以发布
type CommunityPost struct {
	baseModel.BaseModel
	CommunityID string `gorm:"type:uuid;index" json:"communityId"`
	UserID      string `gorm:"type:uuid;index" json:"userId"`
	Content     string `json:"content"`
}

// CommunityComment 社区帖子的评论，入库前必须通过社区过滤链
type CommunityComment struct {
	baseModel.BaseModel
	PostID  string `gorm:"type:uuid;index" json:"postId"`
	UserID  string `gorm:"type:uuid;index" json:"userId"`
	Content string `json:"content"`
}

// CommunityLike 社区帖子点赞，(user, post) 唯一
type CommunityLike struct {
	baseModel.BaseModel
	UserID string `gorm:"type:uuid;uniqueIndex:uniq_community_like,priority:1" json:"userId"`
	PostID string `gorm:"type:uuid;uniqueIndex:uniq_community_like,priority:2" json:"postId"`
}
