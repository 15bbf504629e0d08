package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"google.golang.org/grpc/codes"
)

// Error 业务错误
type Error struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	HTTPStatus int               `json:"-"`
	GRPCCode   codes.Code        `json:"-"`
	Cause      error             `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
	Stack      string            `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 实现 errors.Is 接口
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails 添加详情
func (e *Error) WithDetails(details map[string]string) *Error {
	newErr := e.Copy()
	if newErr.Details == nil {
		newErr.Details = make(map[string]string)
	}
	for k, v := range details {
		newErr.Details[k] = v
	}
	return newErr
}

// WithDetail 添加单个详情
func (e *Error) WithDetail(key, value string) *Error {
	return e.WithDetails(map[string]string{key: value})
}

// WithMessage 替换错误消息
func (e *Error) WithMessage(message string) *Error {
	newErr := e.Copy()
	newErr.Message = message
	return newErr
}

// WithMessagef 格式化替换错误消息
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Copy 复制错误
func (e *Error) Copy() *Error {
	newErr := &Error{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.HTTPStatus,
		GRPCCode:   e.GRPCCode,
		Cause:      e.Cause,
		Stack:      e.Stack,
	}
	if e.Details != nil {
		newErr.Details = make(map[string]string)
		for k, v := range e.Details {
			newErr.Details[k] = v
		}
	}
	return newErr
}

// JSON 返回 JSON 格式
func (e *Error) JSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

// MarshalJSON 实现 json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error,omitempty"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// New 创建新错误
func New(code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		GRPCCode:   codes.Internal,
	}
}

// NewWithStatus 创建带状态码的错误
func NewWithStatus(code, message string, httpStatus int, grpcCode codes.Code) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		GRPCCode:   grpcCode,
	}
}

// Wrap 包装错误
func Wrap(err *Error, cause error) *Error {
	newErr := err.Copy()
	newErr.Cause = cause
	newErr.Stack = getStack()
	return newErr
}

// Wrapf 包装错误并添加信息
func Wrapf(err *Error, format string, args ...interface{}) *Error {
	newErr := err.Copy()
	newErr.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))
	newErr.Stack = getStack()
	return newErr
}

// WrapWithCause 包装错误并添加原因和信息
func WrapWithCause(err *Error, cause error, format string, args ...interface{}) *Error {
	newErr := err.Copy()
	newErr.Message = fmt.Sprintf("%s: %s", err.Message, fmt.Sprintf(format, args...))
	newErr.Cause = cause
	newErr.Stack = getStack()
	return newErr
}

// getStack 获取调用栈
func getStack() string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		builder.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return builder.String()
}

// FromError 从标准错误转换
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	// 已经是 Error 类型
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr
	}

	// 包装为内部错误
	return Wrap(ErrInternal, err)
}

// 通用错误码
var (
	ErrInternal           = NewWithStatus("INTERNAL_ERROR", "内部错误", http.StatusInternalServerError, codes.Internal)
	ErrInvalidRequest     = NewWithStatus("INVALID_REQUEST", "请求参数无效", http.StatusBadRequest, codes.InvalidArgument)
	ErrUnauthorized       = NewWithStatus("UNAUTHORIZED", "未授权", http.StatusUnauthorized, codes.Unauthenticated)
	ErrForbidden          = NewWithStatus("FORBIDDEN", "禁止访问", http.StatusForbidden, codes.PermissionDenied)
	ErrNotFound           = NewWithStatus("NOT_FOUND", "资源不存在", http.StatusNotFound, codes.NotFound)
	ErrConflict           = NewWithStatus("CONFLICT", "资源冲突", http.StatusConflict, codes.AlreadyExists)
	ErrRateLimited        = NewWithStatus("RATE_LIMITED", "请求过于频繁", http.StatusTooManyRequests, codes.ResourceExhausted)
	ErrServiceUnavailable = NewWithStatus("SERVICE_UNAVAILABLE", "服务不可用", http.StatusServiceUnavailable, codes.Unavailable)
	ErrTimeout            = NewWithStatus("TIMEOUT", "请求超时", http.StatusGatewayTimeout, codes.DeadlineExceeded)
	ErrCanceled           = NewWithStatus("CANCELED", "请求已取消", 499, codes.Canceled)
)

// 配置中心错误码
var (
	// ErrConfigNotFound 配置项不存在
	ErrConfigNotFound = NewWithStatus("CONFIG_NOT_FOUND", "配置项不存在", http.StatusNotFound, codes.NotFound)
	// ErrReadOnlyViolation 只读配置不允许修改
	ErrReadOnlyViolation = NewWithStatus("READ_ONLY_VIOLATION", "只读配置不允许修改", http.StatusForbidden, codes.FailedPrecondition)
	// ErrValidation 配置值校验失败, 具体原因通过 WithMessage 携带
	ErrValidation = NewWithStatus("VALIDATION_ERROR", "配置值校验失败", http.StatusBadRequest, codes.InvalidArgument)
	// ErrDecryptionFailure 解密失败, 对调用方不区分信封格式错误与认证标签校验失败
	ErrDecryptionFailure = NewWithStatus("DECRYPTION_FAILURE", "解密失败", http.StatusInternalServerError, codes.Internal)
	// ErrHistoryMismatch 历史记录不属于目标配置项
	ErrHistoryMismatch = NewWithStatus("HISTORY_MISMATCH", "历史记录与配置项不匹配", http.StatusBadRequest, codes.InvalidArgument)
	// ErrConcurrencyConflict 并发更新冲突, 调用方可退避重试
	ErrConcurrencyConflict = NewWithStatus("CONCURRENCY_CONFLICT", "并发更新冲突", http.StatusConflict, codes.Aborted)
	// ErrStorage 存储不可用, 调用方可退避重试
	ErrStorage = NewWithStatus("STORAGE_ERROR", "存储服务不可用", http.StatusServiceUnavailable, codes.Unavailable)
	// ErrRotationInProgress 密钥轮换进行中
	ErrRotationInProgress = NewWithStatus("ROTATION_IN_PROGRESS", "密钥轮换进行中, 请稍后重试", http.StatusConflict, codes.Aborted)
)

// 认证与账号错误码
var (
	ErrInvalidCredentials = NewWithStatus("INVALID_CREDENTIALS", "用户名或密码错误", http.StatusUnauthorized, codes.Unauthenticated)
	ErrTokenExpired       = NewWithStatus("TOKEN_EXPIRED", "令牌已过期", http.StatusUnauthorized, codes.Unauthenticated)
	ErrTokenInvalid       = NewWithStatus("TOKEN_INVALID", "令牌无效", http.StatusUnauthorized, codes.Unauthenticated)
	ErrAdminNotFound      = NewWithStatus("ADMIN_NOT_FOUND", "管理员不存在", http.StatusNotFound, codes.NotFound)
	ErrAdminDisabled      = NewWithStatus("ADMIN_DISABLED", "账号已被禁用", http.StatusForbidden, codes.PermissionDenied)
	ErrAdminLocked        = NewWithStatus("ADMIN_LOCKED", "账号已锁定, 请稍后重试", http.StatusForbidden, codes.PermissionDenied)
)

// 邮件规则与工作流错误码
var (
	ErrRuleNotFound     = NewWithStatus("RULE_NOT_FOUND", "邮件规则不存在", http.StatusNotFound, codes.NotFound)
	ErrInvalidPattern   = NewWithStatus("INVALID_PATTERN", "匹配模式无效", http.StatusBadRequest, codes.InvalidArgument)
	ErrWorkflowNotFound = NewWithStatus("WORKFLOW_NOT_FOUND", "工作流执行记录不存在", http.StatusNotFound, codes.NotFound)
)

// 基础设施错误码
var (
	ErrDuplicateKey = NewWithStatus("DUPLICATE_KEY", "数据已存在", http.StatusConflict, codes.AlreadyExists)
	ErrMQPublish    = NewWithStatus("MQ_PUBLISH_ERROR", "消息发布失败", http.StatusInternalServerError, codes.Internal)
)

// ToHTTPStatus 获取 HTTP 状态码
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var bizErr *Error
	if errors.As(err, &bizErr) {
		if bizErr.HTTPStatus != 0 {
			return bizErr.HTTPStatus
		}
	}

	return http.StatusInternalServerError
}

// Is 判断错误类型
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.Is(err, target)
}

// As 提取错误类型
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode 获取错误码
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Code
	}
	return "UNKNOWN"
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		return bizErr.Message
	}
	return err.Error()
}

// IsNotFound 判断是否为未找到错误
func IsNotFound(err error) bool {
	return Is(err, ErrNotFound) || Is(err, ErrConfigNotFound) || Is(err, ErrRuleNotFound) ||
		Is(err, ErrWorkflowNotFound) || Is(err, ErrAdminNotFound)
}

// IsUnauthorized 判断是否为未授权错误
func IsUnauthorized(err error) bool {
	return Is(err, ErrUnauthorized) || Is(err, ErrInvalidCredentials) ||
		Is(err, ErrTokenExpired) || Is(err, ErrTokenInvalid)
}

// IsInvalidArgument 判断是否为参数错误
func IsInvalidArgument(err error) bool {
	var bizErr *Error
	if !errors.As(err, &bizErr) {
		return false
	}
	return bizErr.GRPCCode == codes.InvalidArgument
}

// IsRetryable 判断错误是否可重试 (存储不可用与并发冲突均可退避重试)
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var bizErr *Error
	if errors.As(err, &bizErr) {
		switch bizErr.GRPCCode {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}
