package model

import (
	"strings"
	"time"

	baseModel "linka/pkg/model"
)

// Post 帖子模型。点赞数等聚合一律实时重算，不保留冗余计数列。
type Post struct {
	baseModel.BaseModel
	UserID      string `gorm:"type:uuid;index" json:"userId"`
	CommunityID string `gorm:"type:uuid;index;default:null" json:"communityId,omitempty"` // 帖子可以属于社区
	Content     string `json:"content"`
	Emoji       string `gorm:"size:10" json:"emoji"`
	Visibility  string `gorm:"size:20;default:'public'" json:"visibility"` // public, friends, private
	Category    string `gorm:"size:50" json:"category"`
	Tags        string `json:"tags"` // 逗号分隔

	// 防刷冷却，只由互动引擎在新动作的创建路径上修改
	LikeCooldownUntil   time.Time `json:"-"`
	RepostCooldownUntil time.Time `json:"-"`
}

// GetTagsList 返回标签列表
func (p *Post) GetTagsList() []string {
	if p.Tags == "" {
		return nil
	}
	var tags []string
	for _, raw := range strings.Split(p.Tags, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Comment 评论模型。垃圾评分在创建时计算一次，命中的评论不会落库，
// 因此存量行的 IsSpam 恒为 false，SpamScore 是当时的评分。
type Comment struct {
	baseModel.BaseModel
	PostID  string `gorm:"type:uuid;index" json:"postId"`
	UserID  string `gorm:"type:uuid;index" json:"userId"`
	Content string `json:"content"`

	SpamScore float64 `gorm:"default:0" json:"-"`
	IsSpam    bool    `gorm:"default:false" json:"-"`
}

// Like 点赞记录，(user, post) 唯一约束在存储层强制
type Like struct {
	baseModel.BaseModel
	UserID string `gorm:"type:uuid;uniqueIndex:uniq_like,priority:1" json:"userId"`
	PostID string `gorm:"type:uuid;uniqueIndex:uniq_like,priority:2" json:"postId"`
}

// Reaction 表情反应，每个 (user, post) 至多一条，换表情原地更新
type Reaction struct {
	baseModel.BaseModel
	UserID string `gorm:"type:uuid;uniqueIndex:uniq_reaction,priority:1" json:"userId"`
	PostID string `gorm:"type:uuid;uniqueIndex:uniq_reaction,priority:2" json:"postId"`
	Kind   string `gorm:"column:reaction_type;size:20" json:"kind"`
}

// ReactionKinds 合法的表情枚举
var ReactionKinds = []string{"like", "laugh", "surprise", "sad", "love", "angry"}

// IsValidReaction 校验表情枚举
func IsValidReaction(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Repost 转发记录，(user, original_post) 唯一
type Repost struct {
	baseModel.BaseModel
	UserID         string `gorm:"type:uuid;uniqueIndex:uniq_repost,priority:1" json:"userId"`
	OriginalPostID string `gorm:"type:uuid;uniqueIndex:uniq_repost,priority:2" json:"originalPostId"`
}
