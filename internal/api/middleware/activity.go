package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ActivityRecorder 记录用户最近活动
type ActivityRecorder interface {
	TouchActivity(ctx context.Context, id uint, location string) error
}

// ActivityTracker 在请求完成后记录已认证用户的最近活动时间与路径
// 同一用户在 interval 内只写一次库；必须挂在 JWTAuth 之后
func ActivityTracker(recorder ActivityRecorder, interval time.Duration) gin.HandlerFunc {
	th := newActivityThrottle(interval)

	return func(c *gin.Context) {
		c.Next()

		v, exists := c.Get("user_id")
		if !exists {
			return
		}
		userID, ok := v.(uint)
		if !ok || userID == 0 {
			return
		}

		if !th.allow(userID, time.Now()) {
			return
		}

		// 写入失败已在 Service 层记录日志，不影响响应
		_ = recorder.TouchActivity(c.Request.Context(), userID, c.Request.URL.Path)
	}
}

// activityThrottle 按用户节流；每个间隔清理一次过期记录，只保留最近活跃的用户
type activityThrottle struct {
	interval time.Duration

	mu        sync.Mutex
	lastSeen  map[uint]time.Time
	lastSweep time.Time
}

func newActivityThrottle(interval time.Duration) *activityThrottle {
	return &activityThrottle{interval: interval, lastSeen: make(map[uint]time.Time)}
}

func (t *activityThrottle) allow(userID uint, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= t.interval {
		for id, seen := range t.lastSeen {
			if now.Sub(seen) >= t.interval {
				delete(t.lastSeen, id)
			}
		}
		t.lastSweep = now
	}

	if prev, ok := t.lastSeen[userID]; ok && now.Sub(prev) < t.interval {
		return false
	}
	t.lastSeen[userID] = now
	return true
}

func (t *activityThrottle) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lastSeen)
}
