package service

import (
	"errors"
	"fmt"
)

// Taxonomia de errores del flujo de matching.
var (
	ErrValidation       = errors.New("validation error")
	ErrUpstreamFatal    = errors.New("upstream fatal")
	ErrUpstreamDegraded = errors.New("upstream degraded")
)

// ValidationError describe un input invalido detectado antes de cualquier llamada externa.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func fatal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamFatal, op, err)
}
