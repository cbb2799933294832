package db

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFound reports whether err is, or wraps, gorm.ErrRecordNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
