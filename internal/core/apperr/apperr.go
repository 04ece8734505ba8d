package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindInvalidInput Kind = "InvalidInput"
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
	KindNotFound     Kind = "NotFound"
	KindConflict     Kind = "Conflict"
	KindTooLarge     Kind = "TooLarge"
	KindInternal     Kind = "InternalError"
)

var kindStatus = map[Kind]int{
	KindInvalidInput: http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindTooLarge:     http.StatusRequestEntityTooLarge,
	KindInternal:     http.StatusInternalServerError,
}

// Error 统一业务错误（由中间件集中映射为 HTTP 响应）
type Error struct {
	Kind   Kind
	Msg    string
	Errors any // 可选：结构化错误明细，原样输出到 errors 字段
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Status 返回该错误对应的 HTTP 状态码
func (e *Error) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WithErrors 附加明细
func (e *Error) WithErrors(details any) *Error {
	e.Errors = details
	return e
}

func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Msg: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func TooLarge(msg string) *Error     { return &Error{Kind: KindTooLarge, Msg: msg} }

func Conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Msg: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// As 提取 *Error；非业务错误返回 nil
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// Status 从任意错误推导状态码，默认 500
func Status(err error) int {
	if ae := As(err); ae != nil {
		return ae.Status()
	}
	return http.StatusInternalServerError
}

// Is 判断错误是否属于某一类
func Is(err error, k Kind) bool {
	ae := As(err)
	return ae != nil && ae.Kind == k
}
