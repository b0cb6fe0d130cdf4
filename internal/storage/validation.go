package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrEmptyFilter    = errors.New("filter must constrain at least one column")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntryRow checks the columns an insert requires.
func validateEntryRow(row EntryRow) error {
	if err := validateString(row.UserID, "user_id"); err != nil {
		return err
	}
	return validateString(row.Text, "text")
}

// validateDeleteFilter refuses filters that would delete every row.
func validateDeleteFilter(f RowFilter) error {
	if f.IsEmpty() {
		return ErrEmptyFilter
	}
	return nil
}
