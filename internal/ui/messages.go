package ui

import (
	"github.com/orest-d/liquer/internal/liquer"
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

type statusMsg struct {
	text  string
	level statusLevel
}

type previewMsg struct {
	path    string
	payload *liquer.Payload
	err     error
}

type clipboardMsg struct {
	text string
	err  error
}
