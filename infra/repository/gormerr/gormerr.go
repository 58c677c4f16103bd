// Package gormerr translates gorm driver errors into the domain sentinels
// the service layer matches on, so infrastructure errors never leak upward.
package gormerr

import (
	"errors"

	"gorm.io/gorm"
)

// MapNotFound converts gorm's record-not-found into the aggregate's own
// sentinel; any other error passes through unchanged.
func MapNotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// IsDuplicated reports whether err is a unique-constraint violation.
// Requires the connection to be opened with TranslateError.
func IsDuplicated(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
