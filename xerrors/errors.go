// Package xerrors 定义定价引擎统一的结构化错误类型.
//
// 包级哨兵错误 (见 pricing_errors.go) 只读；需要附加调试信息时通过 WithDetail / WithContext
// 派生副本，副本与哨兵按 (Type, Code) 相等，可直接用 errors.Is 判断.
package xerrors

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorType 错误的大类，决定对外的 HTTP / gRPC 状态.
type ErrorType uint

const (
	ErrUnknown     ErrorType = iota
	ErrInternal              // 数值内核内部失败
	ErrInvalidArg            // 调用方参数不合法
	ErrUnsupported           // 参数合法但组合不受支持 (如美式定价路径依赖收益)
)

type typeInfo struct {
	name string
	http int
	grpc codes.Code
}

var typeTable = map[ErrorType]typeInfo{
	ErrUnknown:     {"Unknown", http.StatusInternalServerError, codes.Unknown},
	ErrInternal:    {"Internal", http.StatusInternalServerError, codes.Internal},
	ErrInvalidArg:  {"InvalidArg", http.StatusBadRequest, codes.InvalidArgument},
	ErrUnsupported: {"Unsupported", http.StatusUnprocessableEntity, codes.Unimplemented},
}

func (t ErrorType) info() typeInfo {
	if info, ok := typeTable[t]; ok {
		return info
	}
	return typeTable[ErrUnknown]
}

func (t ErrorType) String() string { return t.info().name }

// Error 定价错误.
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Detail  string         `json:"detail,omitempty"` // 具体的参数与取值
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`

	pcs []uintptr
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %d: %s", e.Type, e.Code, e.Message)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause: %v)", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is 按 (Type, Code) 匹配，派生副本仍与其哨兵相等.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code && e.Type == t.Type
}

const stackDepth = 10

// New 创建错误并记录调用栈.
func New(errType ErrorType, code int, message, detail string, cause error) *Error {
	e := &Error{Type: errType, Code: code, Message: message, Detail: detail, Cause: cause}
	e.record(3)
	return e
}

func (e *Error) record(skip int) {
	pcs := make([]uintptr, stackDepth)
	e.pcs = pcs[:runtime.Callers(skip, pcs)]
}

// Stack 返回创建 (或派生) 该错误时的调用栈，格式为 file:line (function).
func (e *Error) Stack() []string {
	frames := runtime.CallersFrames(e.pcs)
	out := make([]string, 0, len(e.pcs))
	for {
		f, more := frames.Next()
		if f.PC != 0 {
			out = append(out, fmt.Sprintf("%s:%d (%s)", f.File, f.Line, f.Function))
		}
		if !more {
			return out
		}
	}
}

// derive 复制错误并在调用方位置重新记录调用栈.
func (e *Error) derive() *Error {
	c := *e
	c.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		c.Context[k] = v
	}
	c.record(4)
	return &c
}

// WithContext 返回附加了上下文键值的新错误.
func (e *Error) WithContext(key string, value any) *Error {
	c := e.derive()
	c.Context[key] = value
	return c
}

// WithDetail 返回替换了调试详情的新错误.
func (e *Error) WithDetail(format string, args ...any) *Error {
	c := e.derive()
	c.Detail = fmt.Sprintf(format, args...)
	return c
}

// Wrap 以 msg 包装 err。err 本身是 *Error 时保留其类型与错误码.
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := FromError(err); ok {
		c := e.derive()
		c.Message = msg
		c.Cause = err
		return c
	}
	e := &Error{Type: errType, Code: int(errType), Message: msg, Cause: err}
	e.record(3)
	return e
}

// HTTPStatus 供通过 HTTP 暴露定价能力的调用方映射状态码.
func (e *Error) HTTPStatus() int { return e.Type.info().http }

// GRPCCode 供通过 gRPC 暴露定价能力的调用方映射状态码.
func (e *Error) GRPCCode() codes.Code { return e.Type.info().grpc }

// ToGRPCStatus 将 Error 转换为 gRPC Status.
func (e *Error) ToGRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Error())
}

// FromError 直接断言 *Error，不展开包装链.
func FromError(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok && e != nil
}
