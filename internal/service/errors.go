package service

import "errors"

var (
	ErrNotFound         = errors.New("error not found")
	ErrAlreadyExists    = errors.New("error already exists")
	ErrInvalidInput     = errors.New("error invalid input")
	ErrDefaultPortfolio = errors.New("error default portfolio can't be deleted")
	ErrExportDisabled   = errors.New("error export sharing is not configured")
)
