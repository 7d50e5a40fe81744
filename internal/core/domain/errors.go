package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUploadRead        = errors.New("upload read failure")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParse             = errors.New("document parse failure")
	ErrPipelineBuild     = errors.New("pipeline build failure")
	ErrQuery             = errors.New("query failure")
	ErrNoActiveDocument  = errors.New("no active document")
	ErrUploadNotFound    = errors.New("upload not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
