package antispam

import "time"

// 动作类型，窗口追踪与指标共用
const (
	KindLike    = "like"
	KindComment = "comment"
	KindFollow  = "follow"
	KindRepost  = "repost"
)

// CommentQuota 每日评论配额。按本地日历日（当地零点）翻转，
// 不是滚动 24 小时窗口，与点赞的滑动窗口是两套独立策略。
type CommentQuota struct {
	DailyMax int
	MinGap   time.Duration
}

// Check 先做日界翻转再检查配额。返回翻转后的当日计数、
// 是否允许本次评论、以及拒绝原因（允许时为空串）。
// 调用方负责在放行后把计数加一并和评论插入放在同一事务里提交。
func (q CommentQuota) Check(countToday int, lastCommentAt time.Time, now time.Time) (int, bool, string) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if !lastCommentAt.IsZero() && lastCommentAt.Before(startOfDay) {
		countToday = 0
	}

	if countToday >= q.DailyMax {
		return countToday, false, "daily comment limit exceeded"
	}

	if !lastCommentAt.IsZero() && now.Sub(lastCommentAt) < q.MinGap {
		return countToday, false, "commenting too frequently, please wait"
	}

	return countToday, true, ""
}
