package service

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors mapped by handlers onto response codes
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
)

// IsNotFound reports whether err is a missing-record error from either the
// service layer or gorm
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsBadRequest reports whether err is a validation error
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsConflict reports whether err is a uniqueness/state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
