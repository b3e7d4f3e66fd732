package code

import (
	"fmt"
	"strings"
)

// Code 带错误码的业务错误
type Code struct {
	// 错误码
	code int
	// 错误消息
	Lang lang
	// 错误详细信息
	details []string
	// 原始错误
	cause error
}

var codes = map[int]string{}

// NewError 注册错误码，重复注册直接 panic
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()
	return &Code{code: code, Lang: l}
}

func (e *Code) Error() string {
	if len(e.details) == 0 {
		return e.Msg()
	}
	return e.Msg() + ": " + strings.Join(e.details, "; ")
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

// Unwrap 返回原始错误
func (e *Code) Unwrap() error {
	return e.cause
}

// Is 按错误码比较，WithDetails 派生的错误与注册的错误相等
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	return ok && t.code == e.code
}

// WithDetails 返回带详情的副本，不修改注册的错误
func (e *Code) WithDetails(details ...string) *Code {
	c := *e
	c.details = append([]string{}, details...)
	return &c
}

// Wrap 返回带原始错误的副本，详情取原始错误的消息
func (e *Code) Wrap(err error) *Code {
	c := e.WithDetails(err.Error())
	c.cause = err
	return c
}
