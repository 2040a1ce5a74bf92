package chat

import "errors"

var (
	ErrNotFound     = errors.New("chat: not found")
	ErrForbidden    = errors.New("chat: forbidden")
	ErrInvalidInput = errors.New("chat: invalid input")
)
