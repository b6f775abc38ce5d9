package wing

import "time"

// ==================== 限流重试保护 ====================

// RetryGuard 包装单次远端调用：
// 命中限流时等待固定间隔后重试且仅重试一次，其余错误原样上抛。
// 跨记录的推进策略由调用方负责（计数后继续下一条，不回队重排）。
type RetryGuard struct {
	Wait time.Duration
}

// NewRetryGuard 默认等待 1 秒
func NewRetryGuard() RetryGuard {
	return RetryGuard{Wait: time.Second}
}

// Do 执行一次调用，限流则等待后再试一次
func (g RetryGuard) Do(fn func() error) error {
	err := fn()
	if err == nil || !IsRateLimited(err) {
		return err
	}
	time.Sleep(g.Wait)
	return fn()
}
