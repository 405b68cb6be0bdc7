package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrUnknownSource = errors.New("unknown variable source")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrInvalidValue  = errors.New("invalid value")
)

// ConfigError reports a definition that breaks the contract between the
// configuration and the engine. It is always fatal for a run.
type ConfigError struct {
	Kind string // "indicator", "value", "catalog" or "weights"
	ID   string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("config: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("config: %s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(kind, id string, format string, args ...any) error {
	return &ConfigError{Kind: kind, ID: id, Err: fmt.Errorf(format, args...)}
}
