package library

import "github.com/pkg/errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBookNotFound    = errors.New("book not found")
	ErrBookLent        = errors.New("book is lent")
	ErrExportDisabled  = errors.New("export is not configured")
)
