package store

import "errors"

// ErrNotFound is returned when writing to a run that does not exist.
var ErrNotFound = errors.New("not found")
