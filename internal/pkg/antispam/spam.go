// Package antispam 实现互动反滥用规则：垃圾内容分类、社区评论过滤、
// 冷却门控和频率窗口。所有判定函数都是纯函数或只依赖注入的存储，
// 由各 domain service 在同一事务内调用。
package antispam

import (
	"regexp"
	"strings"
)

// SpamThreshold 垃圾内容判定阈值，达到即拒绝。
// 权重是 0.1 的倍数，求和有浮点误差，比较时带容差，
// 否则 0.4+0.3 这类恰好压线的组合会漏判。
const SpamThreshold = 0.7

const scoreTolerance = 1e-9

// 垃圾内容信号词，出现任意一个记一次权重
var spamTokens = []string{
	"spam", "advert", "buy now", "for sale", "http://", "https://",
}

var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z0-9]|[$\-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)

// SpamVerdict 分类结果。Score 是各信号权重之和，不做归一化，
// 可能超过 1.0（权重总和 1.5），调用方不得假设 Score <= 1.0。
type SpamVerdict struct {
	Score  float64 `json:"score"`
	IsSpam bool    `json:"isSpam"`
}

// Classify 对文本做一次性垃圾内容评分。内容创建时调用一次，
// 判定结果不再重算；命中的内容直接拒绝，不落库。
//
// 信号与权重：
//   - 含任意信号词（子串，不区分大小写）: +0.3，命中一次即记，不按出现次数累加
//   - 连续 6 个及以上相同字符: +0.4
//   - 长度大于 10 且全为大写: +0.3
//   - 含 URL: +0.5
func Classify(text string) SpamVerdict {
	lower := strings.ToLower(text)
	score := 0.0

	for _, token := range spamTokens {
		if strings.Contains(lower, token) {
			score += 0.3
			break
		}
	}

	if hasRepeatedRun(text, 6) {
		score += 0.4
	}

	if len(text) > 10 && isAllUpper(text) {
		score += 0.3
	}

	if urlPattern.MatchString(lower) {
		score += 0.5
	}

	return SpamVerdict{Score: score, IsSpam: score >= SpamThreshold-scoreTolerance}
}

// hasRepeatedRun 检查是否存在长度不小于 n 的相同字符连续片段
func hasRepeatedRun(s string, n int) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// isAllUpper 至少包含一个字母且所有字母均为大写
func isAllUpper(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}
