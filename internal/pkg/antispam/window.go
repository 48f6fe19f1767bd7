package antispam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowLimit 单个动作类型的频率上限
type WindowLimit struct {
	Max    int
	Window time.Duration
}

// Tracker 按 操作者+动作类型 维护滑动窗口计数。
// 拒绝时不改变任何状态，允许时才消耗一次配额。
type Tracker interface {
	TryConsume(ctx context.Context, actorID, kind string, now time.Time) (bool, error)
}

// ---- 内存实现 ----

type windowEntry struct {
	start time.Time
	count int
}

// MemoryTracker 进程内滑动窗口实现，单实例部署和测试使用
type MemoryTracker struct {
	mu      sync.Mutex
	limits  map[string]WindowLimit
	entries map[string]*windowEntry
}

// NewMemoryTracker 创建内存窗口追踪器
func NewMemoryTracker(limits map[string]WindowLimit) *MemoryTracker {
	return &MemoryTracker{
		limits:  limits,
		entries: make(map[string]*windowEntry),
	}
}

// TryConsume 实现 Tracker。
// 窗口过期则重置为 1 并放行；达到上限则拒绝且不改状态；否则计数加一。
func (t *MemoryTracker) TryConsume(_ context.Context, actorID, kind string, now time.Time) (bool, error) {
	limit, ok := t.limits[kind]
	if !ok {
		return true, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := kind + ":" + actorID
	entry, exists := t.entries[key]
	if !exists || now.Sub(entry.start) > limit.Window {
		t.entries[key] = &windowEntry{start: now, count: 1}
		return true, nil
	}

	if entry.count >= limit.Max {
		return false, nil
	}

	entry.count++
	return true, nil
}

// ---- Redis 实现 ----

// 在脚本里先查后加，保证达到上限的请求不消耗配额
var consumeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// RedisTracker 基于 Redis 的窗口实现，多实例部署共享计数
type RedisTracker struct {
	client *redis.Client
	limits map[string]WindowLimit
	prefix string
}

// NewRedisTracker 创建 Redis 窗口追踪器
func NewRedisTracker(client *redis.Client, limits map[string]WindowLimit) *RedisTracker {
	return &RedisTracker{
		client: client,
		limits: limits,
		prefix: "linka:window:",
	}
}

// TryConsume 实现 Tracker
func (t *RedisTracker) TryConsume(ctx context.Context, actorID, kind string, _ time.Time) (bool, error) {
	limit, ok := t.limits[kind]
	if !ok {
		return true, nil
	}

	key := t.prefix + kind + ":" + actorID
	res, err := consumeScript.Run(ctx, t.client, []string{key},
		limit.Max, limit.Window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate window check failed: %w", err)
	}
	return res == 1, nil
}
