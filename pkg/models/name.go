package models

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName indicates a workflow or task name that cannot be used as a
// storage key.
var ErrInvalidName = errors.New("invalid name")

// namePattern constrains workflow and task names. Names become file names
// under the data directory and fields in the pipe-delimited execution log,
// so path separators, pipes, whitespace and a leading dot are all rejected.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName rejects names unusable as storage keys or log fields.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q (allowed: letters, digits, '.', '_', '-'; must start with a letter or digit)", ErrInvalidName, name)
	}

	return nil
}
