package antispam

import "time"

// 冷却门控。目标（帖子）和操作者（用户）各自持有独立的冷却时间戳，
// 两者都放行才允许新动作。取消动作（取消点赞）不检查也不设置冷却。

// CooldownOpen 判断冷却是否已解除。until 为零值表示从未设置过冷却。
// now 严格大于 until 才放行，与存量数据的语义保持一致。
func CooldownOpen(until time.Time, now time.Time) bool {
	if until.IsZero() {
		return true
	}
	return now.After(until)
}

// CooldownRemaining 剩余等待秒数，用于用户提示。永不为负。
func CooldownRemaining(until time.Time, now time.Time) int {
	if until.IsZero() {
		return 0
	}
	remaining := int(until.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
