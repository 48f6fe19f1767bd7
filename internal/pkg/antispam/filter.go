package antispam

import "strings"

// 社区级过滤词表。关键词表由社区自行配置，这两张是内置的。
var (
	profanityTokens = []string{"damn", "crap", "wtf"}
	hostileTokens   = []string{"hate you", "kill", "death to", "destroy you"}
)

// FilterPolicy 社区评论过滤策略，各过滤器可独立开关
type FilterPolicy struct {
	CommentsEnabled bool   `json:"commentsEnabled"`
	ProfanityFilter bool   `json:"profanityFilter"`
	HostileFilter   bool   `json:"hostileFilter"`
	KeywordFilter   bool   `json:"keywordFilter"`
	BannedKeywords  string `json:"bannedKeywords"` // 逗号分隔
}

// Evaluate 按固定顺序应用过滤器，遇到第一个失败立即返回。
// 通过过滤链不代表跳过垃圾内容分类：两者必须独立通过，先过滤后分类。
func (p FilterPolicy) Evaluate(text string) (bool, string) {
	if !p.CommentsEnabled {
		return false, "comments are disabled in this community"
	}

	lower := strings.ToLower(text)

	if p.ProfanityFilter {
		for _, token := range profanityTokens {
			if strings.Contains(lower, token) {
				return false, "comment contains profanity"
			}
		}
	}

	if p.HostileFilter {
		for _, token := range hostileTokens {
			if strings.Contains(lower, token) {
				return false, "comment contains hostile language"
			}
		}
	}

	if p.KeywordFilter && p.BannedKeywords != "" {
		for _, raw := range strings.Split(p.BannedKeywords, ",") {
			word := strings.ToLower(strings.TrimSpace(raw))
			if word != "" && strings.Contains(lower, word) {
				return false, "comment contains banned keywords"
			}
		}
	}

	return true, "OK"
}
