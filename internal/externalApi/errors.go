package externalApi

import "errors"

var (
	ErrNotFound    = errors.New("instrument not found")
	ErrUnavailable = errors.New("external api unavailable")
)
