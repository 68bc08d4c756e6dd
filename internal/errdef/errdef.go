package errdef

import (
	"errors"
	"fmt"
	"strings"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeNetwork    Code = "network"
	CodeHTTP       Code = "http"
	CodeParse      Code = "parse"
	CodeFilesystem Code = "filesystem"
	CodeHistory    Code = "history"
	CodeConfig     Code = "config"
)

// Error carries a classification code next to the human readable message.
// Body holds an optional server-supplied payload (e.g. an HTML error page).
type Error struct {
	Code    Code
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code Code, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Message: msg}
}

func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// WithBody attaches a response payload to err. Non-errdef errors are wrapped
// with CodeUnknown so the body is never lost.
func WithBody(err error, body []byte) error {
	if err == nil || len(body) == 0 {
		return err
	}
	var typed *Error
	if errors.As(err, &typed) {
		cp := *typed
		cp.Body = append([]byte(nil), body...)
		return &cp
	}
	return &Error{Code: CodeUnknown, Err: err, Body: append([]byte(nil), body...)}
}

func CodeOf(err error) Code {
	var typed *Error
	if errors.As(err, &typed) && typed.Code != "" {
		return typed.Code
	}
	return CodeUnknown
}

func BodyOf(err error) []byte {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Body
	}
	return nil
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

func Message(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
