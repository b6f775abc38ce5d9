package wing

import (
	"errors"
	"fmt"
)

// ==================== 错误分类 ====================

// ErrorKind WING API 错误类别
// 同步引擎按类别决定处理策略：限流重试一次、其余按记录计数后跳过
type ErrorKind int

const (
	ErrKindRemote      ErrorKind = iota // 业务错误（商品不存在、参数非法、HTTP 200 内嵌 code=ERROR）
	ErrKindRateLimited                  // 限流 (HTTP 429)
	ErrKindNetwork                      // 连接/超时/5xx，下次运行自然重试
)

// WingError 쿠팡 WING API 오류
type WingError struct {
	Kind       ErrorKind
	Code       string
	Message    string
	StatusCode int
}

func (e *WingError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsRateLimited 是否限流错误
func IsRateLimited(err error) bool {
	var we *WingError
	return errors.As(err, &we) && we.Kind == ErrKindRateLimited
}

// IsNetwork 是否网络层错误（连接失败/超时/5xx）
func IsNetwork(err error) bool {
	var we *WingError
	return errors.As(err, &we) && we.Kind == ErrKindNetwork
}

// IsRemote 是否远端业务错误
func IsRemote(err error) bool {
	var we *WingError
	return errors.As(err, &we) && we.Kind == ErrKindRemote
}
