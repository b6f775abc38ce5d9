package wing

import (
	"errors"
	"testing"
	"time"
)

func TestRetryGuard_SuccessNoRetry(t *testing.T) {
	guard := RetryGuard{Wait: time.Millisecond}

	calls := 0
	err := guard.Do(func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Do 失败: %v", err)
	}
	if calls != 1 {
		t.Errorf("调用次数 = %d, want 1", calls)
	}
}

func TestRetryGuard_RateLimitRetriedOnce(t *testing.T) {
	guard := RetryGuard{Wait: time.Millisecond}

	calls := 0
	err := guard.Do(func() error {
		calls++
		if calls == 1 {
			return &WingError{Kind: ErrKindRateLimited, Code: "RATE_LIMITED", StatusCode: 429}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("重试后应成功: %v", err)
	}
	if calls != 2 {
		t.Errorf("调用次数 = %d, want 2", calls)
	}
}

func TestRetryGuard_SecondRateLimitGivesUp(t *testing.T) {
	guard := RetryGuard{Wait: time.Millisecond}

	calls := 0
	err := guard.Do(func() error {
		calls++
		return &WingError{Kind: ErrKindRateLimited, Code: "RATE_LIMITED", StatusCode: 429}
	})

	// 只重试一次，第二次还限流就把错误上抛
	if calls != 2 {
		t.Errorf("调用次数 = %d, want 2", calls)
	}
	if !IsRateLimited(err) {
		t.Errorf("应上抛限流错误, got %v", err)
	}
}

func TestRetryGuard_OtherErrorsNotRetried(t *testing.T) {
	guard := RetryGuard{Wait: time.Millisecond}

	tests := []struct {
		name string
		err  error
	}{
		{name: "远端业务错误", err: &WingError{Kind: ErrKindRemote, Code: "API_ERROR"}},
		{name: "网络错误", err: &WingError{Kind: ErrKindNetwork, Code: "NETWORK_ERROR"}},
		{name: "普通错误", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := guard.Do(func() error {
				calls++
				return tt.err
			})

			if calls != 1 {
				t.Errorf("调用次数 = %d, want 1（非限流不重试）", calls)
			}
			if err != tt.err {
				t.Errorf("错误应原样上抛, got %v", err)
			}
		})
	}
}
