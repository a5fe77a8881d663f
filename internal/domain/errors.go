package domain

import "errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrEmptyResponse = errors.New("empty response")
	ErrParse         = errors.New("unexpected response shape")
	ErrTransport     = errors.New("transport failure")
	ErrTimeout       = errors.New("timed out")
	ErrInvalidRate   = errors.New("invalid rate")
)
